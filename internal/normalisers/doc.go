// Package normalisers holds text extractors for uploaded documents.
// Only PDF is accepted for ingestion; see the pdf sub-package.
package normalisers
