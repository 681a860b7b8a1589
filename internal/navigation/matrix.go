package navigation

// Matrix maps (chapter, page) to the absolute path of a page file.
// An empty path marks a page that is missing below the highest index.
type Matrix [][]string

// Clone returns a deep copy.
func (m Matrix) Clone() Matrix {
	if m == nil {
		return nil
	}
	out := make(Matrix, len(m))
	for i, ch := range m {
		out[i] = make([]string, len(ch))
		copy(out[i], ch)
	}
	return out
}

// Chapters returns the number of chapters, including empty ones.
func (m Matrix) Chapters() int { return len(m) }

// Chapter returns the pages of a chapter.
func (m Matrix) Chapter(chapter int) ([]string, bool) {
	if chapter < 0 || chapter >= len(m) {
		return nil, false
	}
	return m[chapter], true
}

// Page returns the path at (chapter, page), or false when the cell is
// out of range or absent.
func (m Matrix) Page(chapter, page int) (string, bool) {
	pages, ok := m.Chapter(chapter)
	if !ok || page < 0 || page >= len(pages) || pages[page] == "" {
		return "", false
	}
	return pages[page], true
}

// set stores path at (chapter, page), padding both dimensions with absent
// values as needed.
func (m *Matrix) set(chapter, page int, path string) {
	for len(*m) <= chapter {
		*m = append(*m, []string{})
	}
	pages := (*m)[chapter]
	for len(pages) <= page {
		pages = append(pages, "")
	}
	pages[page] = path
	(*m)[chapter] = pages
}
