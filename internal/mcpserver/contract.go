package mcpserver

// LibraryLayout describes how a comic library is laid out on disk, for
// LLM consumers that need to reason about ids, chapters and pages.
const LibraryLayout = `# Marble Library Layout

A library is a directory with one sub-directory per comic.

## Comic directory

` + "```" + `
<library>/
  harbor-lights/
    data.json        # metadata, REQUIRED for the comic to be listed
    0-0.png          # chapter 0, page 0
    0-1.png          # chapter 0, page 1
    1-0.jpg          # chapter 1, page 0
` + "```" + `

## data.json

` + "```" + `json
{
  "id": 7,
  "comic_name": "Harbor Lights",
  "description": "Two keepers and a storm.",
  "keywords": {"genre": ["drama", "sea"], "lang": ["en"]},
  "translations": [["French", 8]],
  "found": true
}
` + "```" + `

## Rules

1. **ids are unique** non-negative integers across the whole library.
2. **Required fields**: ` + "`" + `id` + "`" + `, ` + "`" + `keywords` + "`" + `, ` + "`" + `translations` + "`" + ` and ` + "`" + `found` + "`" + `
   must be present and non-null; ` + "`" + `comic_name` + "`" + ` (alias ` + "`" + `name` + "`" + `) and
   ` + "`" + `description` + "`" + ` are optional. One invalid record stops the whole load.
   **found: false** comics are ignored entirely.
3. **Page files** are named ` + "`" + `<chapter>-<page>.<ext>` + "`" + `; both numbers are
   zero-based decimal integers. Everything after the first dot is ignored.
4. **Gaps** are allowed: a missing chapter is an empty list and a missing page
   is an empty string in the navigation matrix.
5. ` + "`" + `data.json` + "`" + ` and files ending in ` + "`" + `.tmp` + "`" + ` are never pages. Any other
   file that does not follow the page naming rule makes the comic unreadable.
6. **Progress** is stored per id as ` + "`" + `[chapter, page]` + "`" + `. A comic without its
   own entry inherits the position of its first translation that has one.
`
