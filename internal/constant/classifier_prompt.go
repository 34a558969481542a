package constant

const (
	// ClassifierPromptV1 takes the agent name (three times) and the text to classify.
	ClassifierPromptV1 = `
You are given a text output from an agent named '%s'.
Your task is to classify it as either an 'article' or a 'question'.

It is an 'article' ONLY if it is multi-paragraph, long-form, structured writing
(headings, sections, or several developed paragraphs).

It is a 'question' if it is any of:
- a direct question or clarification request to the user,
- a short meta or status statement (for example "I have extracted the topic"),
- any other text that does not constitute substantive article content.

If it is an article:
- Set "kind" to "article".
- Return the FULL article in proper Markdown format (not partial) in "article".
- Use clear section headings, proper line breaks, paragraphs, and bullet lists where applicable.
- Preserve the article's original structure, including all sections.
- Leave "question" empty.

If it is a question:
- Set "kind" to "question".
- Return only the question or statement text in "question".
- Leave "article" empty.

Return ONLY valid JSON with this exact structure:

{
  "agent_name": "%s",
  "kind": "article" | "question",
  "article": "<full article text in Markdown, empty if it is a question>",
  "question": "<question text, empty if it is an article>"
}

Text to classify:
"""%s"""
`
)
