package llm

import "fmt"

// captionPrompt asks for a one-line description of an extracted image.
func captionPrompt(index int) string {
	return fmt.Sprintf("What does this image (figure-%d) show? Answer concisely in 15 words or fewer.", index)
}

// formatRules are the hard output constraints shared by every report
// request. The model output must stay inside the constrained markup grammar
// the parser accepts.
const formatRules = `## Output format (hard constraints)
Whatever the instruction, the output must obey these rules:

1. Images and tables
   - Where an image from the listing fits the context, place its tag [[IMG: label]] exactly as given (example: [[IMG: figure-1]]).
   - An image tag must be on its own line, never inline with other text.
   - Organize comparisons and numeric data as pipe-delimited tables.
   - Never put raw line breaks inside a table cell; use <br> if a cell needs multiple lines.

2. Markup
   - Headings use #, ##, ### and #### only. Bullet items start with "- ". Bold uses **double asterisks**.
   - No other markup of any kind.

3. Tone
   - Add a short gloss to technical terms.
   - Never speculate; state only facts present in the document.

Based on the following content, write the complete report without omissions.

`

const analystRole = `You are an expert business analyst and document specialist.
Analyze the provided PDF content (text and image listing) and `

// generalApproach is used when no instruction was given.
const generalApproach = `produce a complete summary report, structured by importance: a highlights section, a key points section with bullet details, then detailed analysis with figures and comparison tables where the content supports them.

`

// instructedApproach asks the model to classify the instruction intent and
// pick between a focused answer and a full summary.
const instructedApproach = `produce a report in the format best suited to the user instruction below.

=========================================
User instruction:
"%s"
=========================================

## Approach
First decide the intent of the instruction and take one of two approaches.

### Mode A: a specific question or topic
The user asks about a specific topic ("what are the countermeasures for X?", "show Y as numbers or a table", "the risks of Z").
- Keep the overall summary minimal and answer the question first.
- Structure: 1. the direct answer, 2. supporting data and details from the document (tables and bullet lists), 3. related context.

### Mode B: a general summary
The user asks for an overall picture ("summarize this", "explain it simply", "list the key points").
- Cover the whole document, structured by importance: a highlights section, a key points section with bullet details, then detailed analysis with figures and comparison tables where the content supports them.

`

// summarizePrompt builds the report generation prompt.
func summarizePrompt(text, imageListing, instruction string) string {
	var head string
	if instruction == "" {
		head = analystRole + generalApproach
	} else {
		head = analystRole + fmt.Sprintf(instructedApproach, instruction)
	}
	return head + formatRules +
		"=== Document text ===\n" + text +
		"\n\n=== Available images ===\n" + imageListing
}
