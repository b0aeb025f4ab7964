package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Row stores keep structured fields as JSON text in a single cell. Decoding
// never fails; a malformed cell yields the empty structure.

func EncodePrices(p Prices) string {
	if p == nil {
		p = Prices{}
	}
	b, _ := json.Marshal(p)
	return string(b)
}

func DecodePrices(s string) Prices {
	out := Prices{}
	if strings.TrimSpace(s) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return Prices{}
	}
	return out
}

// EncodeImages stores only references; inline assets must be uploaded first.
func EncodeImages(images []Asset) string {
	urls := make([]string, 0, len(images))
	for _, img := range images {
		if img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	b, _ := json.Marshal(urls)
	return string(b)
}

func DecodeImages(s string) []Asset {
	var urls []string
	if err := json.Unmarshal([]byte(s), &urls); err != nil {
		return []Asset{}
	}
	out := make([]Asset, 0, len(urls))
	for _, u := range urls {
		out = append(out, Ref(u))
	}
	return out
}

// EncodeItems stores each line with its product snapshot, so inline images
// never reach the cell.
func EncodeItems(items []CartItem) string {
	out := make([]CartItem, len(items))
	for i, it := range items {
		it.Product = it.Product.Snapshot()
		out[i] = it
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func DecodeItems(s string) []CartItem {
	out := []CartItem{}
	if strings.TrimSpace(s) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return []CartItem{}
	}
	return out
}

// ParseFlag reads a text cell as a boolean: only "true" in any case is true.
func ParseFlag(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

func FormatFlag(b bool) string {
	return strconv.FormatBool(b)
}

// ParseAmount reads a numeric cell, returning 0 on garbage.
func ParseAmount(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func FormatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func ParseTimestamp(s string) int64 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return int64(ParseAmount(s))
}
