package mcpserver

// EncodingFormatContract describes the serialized word graph format that
// clients read from the graph export and write when uploading encoded graphs.
const EncodingFormatContract = `# wordhop Encoded Graph Format

An encoded graph is a map from every vocabulary word to a compact node. It is
written as JSON (` + "`" + `.json` + "`" + `) or msgpack (` + "`" + `.mp` + "`" + `) with the same field names.
Words without any edge still appear, with an empty node.

## Node fields

| Field | Form | Meaning |
|---|---|---|
| ` + "`" + `delete` + "`" + ` | mask string | letter i can be removed |
| ` + "`" + `uppercase` + "`" + ` | mask string | letter i can be upper-cased |
| ` + "`" + `lowercase` + "`" + ` | mask string | letter i can be lower-cased |
| ` + "`" + `insert` + "`" + ` | set string | letters insertable at gap i (len(word)+1 gaps) |
| ` + "`" + `replace` + "`" + ` | set string | letters that can replace letter i |

Fields with nothing legal are omitted.

## Mask strings

One character per letter of the word. Position i holds the word's own letter
when the edit is legal there, otherwise ` + "`" + `.` + "`" + `.

    "cat": {"delete": "c.."}        # removing "c" gives "at"

## Set strings

One segment per position, segments separated by ` + "`" + `/` + "`" + `. A segment lists the
legal letters in sorted order.

    "at": {"insert": "bc//"}       # "bat" and "cat"; nothing at gaps 1 and 2
    "cat": {"replace": "Cb//"}     # "Cat" and "bat"

Readers also accept the older form where a set field is a JSON array of
segments, e.g. ` + "`" + `["bc", "", ""]` + "`" + `.

## Positions

Positions count Unicode code points, not bytes: "éclair" has 6 letters and 7 gaps.

## Rules

1. Every mask is exactly as long as its word.
2. Every set field has exactly len(word) (replace) or len(word)+1 (insert) segments.
3. A graph violating 1 or 2 is rejected as a whole.
4. Edges naming words missing from the file are ignored by queries.
`
