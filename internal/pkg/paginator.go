package pkg

import (
	"errors"
	"strconv"
	"strings"
)

// DefaultPageSize is the number of posts shown per feed page.
const DefaultPageSize = 10

// Page describes one page of an ordered result set. Number is always a valid
// page index in [1, NumPages], and NumPages is at least 1 even for empty sets.
type Page struct {
	Number   int
	NumPages int
	Size     int
	Total    int64
}

// NewPage clamps the requested page against total items. A missing or
// non-numeric request selects the first page; numbers outside the range snap to
// the nearest valid page.
func NewPage(total int64, size int, requested string) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}
	numPages := int((total + int64(size) - 1) / int64(size))
	if numPages < 1 {
		numPages = 1
	}

	requested = strings.TrimSpace(requested)
	number, err := strconv.Atoi(requested)
	switch {
	case errors.Is(err, strconv.ErrRange):
		// too many digits for an int: past the end when positive
		number = 1
		if !strings.HasPrefix(requested, "-") {
			number = numPages
		}
	case err != nil:
		number = 1
	case number < 1:
		number = 1
	case number > numPages:
		number = numPages
	}

	return Page{Number: number, NumPages: numPages, Size: size, Total: total}
}

// Offset is the index of the first item on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

func (p Page) HasPrevious() bool { return p.Number > 1 }

func (p Page) HasNext() bool { return p.Number < p.NumPages }

func (p Page) PreviousNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

func (p Page) NextNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

// Numbers lists every page index, for rendering page links.
func (p Page) Numbers() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Paginate slices items into the requested page.
func Paginate[T any](items []T, size int, requested string) ([]T, Page) {
	page := NewPage(int64(len(items)), size, requested)
	start := page.Offset()
	if start >= len(items) {
		return items[:0], page
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], page
}
