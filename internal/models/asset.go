package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// InlineAsset carries raw bytes that still have to be uploaded.
// Data is base64 on the wire.
type InlineAsset struct {
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// Asset is either a stored reference (a JSON string) or inline bytes (a JSON
// object). The JSON shape is the discriminator.
type Asset struct {
	URL    string
	Inline *InlineAsset
}

func Ref(url string) Asset { return Asset{URL: url} }

func Inline(contentType string, data []byte) Asset {
	return Asset{Inline: &InlineAsset{ContentType: contentType, Data: data}}
}

func (a Asset) IsInline() bool { return a.Inline != nil }

func (a Asset) IsZero() bool { return a.URL == "" && a.Inline == nil }

func (a Asset) MarshalJSON() ([]byte, error) {
	if a.Inline != nil {
		return json.Marshal(a.Inline)
	}
	return json.Marshal(a.URL)
}

func (a *Asset) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*a = Asset{}
		return nil
	case b[0] == '"':
		var url string
		if err := json.Unmarshal(b, &url); err != nil {
			return err
		}
		*a = Asset{URL: url}
		return nil
	case b[0] == '{':
		var in InlineAsset
		if err := json.Unmarshal(b, &in); err != nil {
			return fmt.Errorf("inline asset: %w", err)
		}
		if len(in.Data) == 0 {
			return errors.New("inline asset: empty data")
		}
		*a = Asset{Inline: &in}
		return nil
	}
	return fmt.Errorf("asset must be a string reference or an inline object, got %q", b[:1])
}
