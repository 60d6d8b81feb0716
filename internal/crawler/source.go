package crawler

import (
	"context"
	"strings"

	"solarintel/internal/models"
)

// SubjectPlaceholder is replaced by the subject's query value in query templates.
const SubjectPlaceholder = "{subject}"

// Request parameterizes one upstream fetch.
type Request struct {
	Subject models.Subject
}

// HasSubject reports whether the request is bound to a subject.
func (r Request) HasSubject() bool {
	return r.Subject.Name != ""
}

// Source fetches raw items for one request from one upstream.
type Source interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]models.RawItem, error)
}

// CredentialedSource is a source that cannot run without an API key.
type CredentialedSource interface {
	Source
	HasCredential() bool
}

// RenderQuery substitutes the subject into template.
func RenderQuery(template string, subject models.Subject) string {
	return strings.ReplaceAll(template, SubjectPlaceholder, subject.QueryValue())
}
