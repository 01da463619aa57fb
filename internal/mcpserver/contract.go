package mcpserver

// GlossaryFormatContract describes the glossary XML document the import
// and export tools read and write.
const GlossaryFormatContract = `# Glossary Document Format

A glossary document is UTF-8 XML. Element names are upper case.

## Structure

` + "```" + `xml
<?xml version="1.0" encoding="UTF-8"?>
<GLOSSARY>
  <INFO>
    <ENTRIES>
      <ENTRY>
        <CONCEPT>Paris</CONCEPT>
        <DEFINITION>Capital of France</DEFINITION>
        <FORMAT>2</FORMAT>
        <ALIASES>
          <ALIAS>
            <NAME>City of Light</NAME>
          </ALIAS>
        </ALIASES>
        <USEDYNALINK>0</USEDYNALINK>
        <CASESENSITIVE>0</CASESENSITIVE>
        <FULLMATCH>1</FULLMATCH>
      </ENTRY>
    </ENTRIES>
  </INFO>
</GLOSSARY>
` + "```" + `

## Rules

1. **Every ENTRY needs CONCEPT, DEFINITION and FORMAT.** A missing element
   rejects the whole document.
2. **ALIASES is optional.** Each ALIAS must contain a NAME.
3. **FORMAT** is a text format code: 0 auto, 1 html, 2 plain, 3 wiki,
   4 markdown. Empty means 0.
4. **Markup inside DEFINITION is escaped** (` + "`" + `&lt;p&gt;` + "`" + `), never embedded raw.
5. **USEDYNALINK, CASESENSITIVE and FULLMATCH** are written on export from
   the server settings and ignored on import.
6. **File paths** end with ` + "`" + `.xml` + "`" + ` and use forward slashes.

## Mapping to questions

- Each ENTRY becomes one shortanswer question.
- DEFINITION becomes the question name and text, FORMAT its text format.
- CONCEPT (trimmed) becomes the first answer; each alias NAME follows in
  order. Every answer earns full credit.
- On export only shortanswer and multichoice questions produce entries.
  The first full-credit answer is the concept; later full-credit answers are
  aliases. Partial-credit answers are dropped.
`
