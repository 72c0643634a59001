package dto

type MarkdownPreviewRequest struct {
	Content string `json:"content" example:"# Heading\nSome *markdown*."`
}

type MarkdownPreviewResponse struct {
	HTML string `json:"html" example:"<h1>Heading</h1>\n<p>Some <em>markdown</em>.</p>\n"`
}
