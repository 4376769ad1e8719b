package template

import (
	"io"
)

// TemplateRenderer is the seam exporters render text formats through.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}
