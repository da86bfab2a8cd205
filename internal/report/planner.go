package report

import "fmt"

// Capacity is how many content units fit on the first page of a section and on
// each overflow page after it.
type Capacity struct {
	FirstPage    int `json:"firstPage"`
	OverflowPage int `json:"overflowPage"`
}

// DefaultCapacity 评分汇总区：首页 8 题，续页 12 题
var DefaultCapacity = Capacity{FirstPage: 8, OverflowPage: 12}

// Validate rejects zero or negative capacities. They are configuration errors.
func (c Capacity) Validate() error {
	if c.FirstPage < 1 || c.OverflowPage < 1 {
		return fmt.Errorf("page capacities must be >= 1, got first=%d overflow=%d", c.FirstPage, c.OverflowPage)
	}
	return nil
}

// PageSlice is the half-open range [Start, End) of unit indices placed on one page.
type PageSlice struct {
	Start   int  `json:"startIndex"`
	End     int  `json:"endIndex"`
	IsFirst bool `json:"isFirst"`
}

func (s PageSlice) Len() int {
	return s.End - s.Start
}

// Plan splits totalUnits across a first page and as many overflow pages as needed.
// Order is preserved and units are never split. Zero units still yield one empty
// first-page slice so the page shell gets rendered.
func Plan(totalUnits int, c Capacity) ([]PageSlice, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if totalUnits < 0 {
		return nil, fmt.Errorf("unit count must be >= 0, got %d", totalUnits)
	}

	if totalUnits <= c.FirstPage {
		return []PageSlice{{Start: 0, End: totalUnits, IsFirst: true}}, nil
	}

	slices := make([]PageSlice, 0, PageCount(totalUnits, c))
	slices = append(slices, PageSlice{Start: 0, End: c.FirstPage, IsFirst: true})
	for start := c.FirstPage; start < totalUnits; start += c.OverflowPage {
		end := start + c.OverflowPage
		if end > totalUnits {
			end = totalUnits
		}
		slices = append(slices, PageSlice{Start: start, End: end})
	}
	return slices, nil
}

// PageCount equals len(Plan(totalUnits, c)) without building the slices.
// Capacities are assumed valid.
func PageCount(totalUnits int, c Capacity) int {
	if totalUnits <= c.FirstPage {
		return 1
	}
	rest := totalUnits - c.FirstPage
	return 1 + (rest+c.OverflowPage-1)/c.OverflowPage
}
