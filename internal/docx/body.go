package docx

import "fmt"

// BodyText returns the concatenated text content of the document body,
// for the author-date pipeline's in-text citation extractor to scan.
func (a *Document) BodyText() (string, error) {
	if !a.HasPart(pathDocument) {
		return "", fmt.Errorf("docx: document part not present")
	}
	root, err := a.part(pathDocument)
	if err != nil {
		return "", err
	}
	body := firstDescendant(root, "body")
	if body == nil {
		return "", fmt.Errorf("docx: no body element in document part")
	}
	return textContent(body), nil
}
