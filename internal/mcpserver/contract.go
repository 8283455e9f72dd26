package mcpserver

// EntryFormatContract describes the journal entry format that LLM consumers
// should follow when drafting or editing entries.
const EntryFormatContract = `# Daybook Entry Format

One Markdown file per day. The canonical form starts with a YAML header
between ` + "`---`" + ` lines.

## Structure

` + "```" + `markdown
---
title: Planning the offsite          # the subject without the date
date: 2024-03-05                     # ISO date; falls back to the title, then the file name
notion_id: https://www.notion.so/... # written by the publisher
buttondown_id: 8f1c...               # written by the publisher
slack_channel: C0123456              # written by the publisher
slack_ts: "1709650000.000100"        # written by the publisher
---

Body in standard Markdown.
` + "```" + `

## Rules

1. The publisher owns ` + "`notion_id`, `buttondown_id`, `slack_channel`, `slack_ts`" + ` and
   ` + "`slack_canvas_id`" + `. Do not edit them by hand.
2. Header keys are lowercase with underscores. Legacy keys such as ` + "`Notion-Id`" + ` are
   normalized on the next write.
3. The email subject and chat header are ` + "`{date}: {title}`" + `.
4. Files without a header are still read: a ` + "`# 2024-03-05: Title`" + ` first heading, or a
   legacy header whose first key is ` + "`Subject`" + `, or plain text dated by the file name.
5. Links to internal notes pages are rewritten to their public URL on publish, followed by
   a ` + "`[🄽](original)`" + ` marker. Unresolvable internal links are reported, not published silently.

## Supported Markdown

- Headings ` + "`##`" + ` and ` + "`###`" + `. A ` + "`#`" + ` heading is dropped since the title is separate.
- Paragraphs, ` + "`>`" + ` quotes, ` + "`---`" + ` dividers.
- Bulleted and numbered lists, nested by indentation.
- Fenced code blocks with an optional language.
- Standalone images ` + "`![caption](https://...)`" + `.
- Inline ` + "`**bold**`, `*italic*`, `_italic_`, `` `code` ``" + ` and ` + "`[text](url)`" + `. Styles do not nest.
`
