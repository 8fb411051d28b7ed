package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/lbx/internal/shared"
)

// Kind is the persisted variant tag of an [Asset].
type Kind string

const (
	KindBook  Kind = "book"
	KindVideo Kind = "video"
)

// Label returns the display name of the kind ("Book" or "Video").
func (k Kind) Label() string {
	switch k {
	case KindBook:
		return "Book"
	case KindVideo:
		return "Video"
	default:
		return ""
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindBook || k == KindVideo
}

// ParseKind converts user input ("book", "Video", ...) into a [Kind].
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", shared.ErrUnknownVariant, s)
	}
	return k, nil
}

// Variant holds the fields specific to one kind of asset.
//
// The interface is sealed: [Book] and [Video] are the only implementations.
type Variant interface {
	Kind() Kind
	variant()
}

// Book is the variant for printed material.
type Book struct {
	Author     string `json:"author"`
	ISBN       string `json:"isbn"`
	DeweyIndex string `json:"dewey_index"`
}

func (Book) Kind() Kind { return KindBook }
func (Book) variant()   {}

// Video is the variant for recorded media.
type Video struct {
	Director string `json:"director"`
}

func (Video) Kind() Kind { return KindVideo }
func (Video) variant()   {}

// Asset is a catalog item. Its [Variant] is fixed when the asset is created.
type Asset struct {
	ID             int64
	Title          string
	Year           int
	Cost           float64
	ImageURL       string
	NumberOfCopies int
	Status         *Status
	Location       *Branch
	Variant        Variant
}

// NewBook creates an unsaved book asset.
func NewBook(title, author, isbn, deweyIndex string) *Asset {
	return &Asset{
		Title:          title,
		NumberOfCopies: 1,
		Variant:        Book{Author: author, ISBN: isbn, DeweyIndex: deweyIndex},
	}
}

// NewVideo creates an unsaved video asset.
func NewVideo(title, director string) *Asset {
	return &Asset{
		Title:          title,
		NumberOfCopies: 1,
		Variant:        Video{Director: director},
	}
}

func (a *Asset) Key() int64 { return a.ID }

// Validate only checks that the asset carries a variant; every other constraint belongs to the store.
func (a *Asset) Validate() error {
	if a.Variant == nil {
		return shared.ErrUnknownVariant
	}
	return nil
}

// Kind returns the variant tag, or "" when the asset has no variant.
func (a *Asset) Kind() Kind {
	if a.Variant == nil {
		return ""
	}
	return a.Variant.Kind()
}

// Book returns the book fields when the asset is a book.
func (a *Asset) Book() (Book, bool) {
	b, ok := a.Variant.(Book)
	return b, ok
}

// Video returns the video fields when the asset is a video.
func (a *Asset) Video() (Video, bool) {
	v, ok := a.Variant.(Video)
	return v, ok
}

// assetJSON is the wire form of an [Asset]: variant fields are flattened next to the kind.
type assetJSON struct {
	ID             int64   `json:"id"`
	Kind           Kind    `json:"kind"`
	Title          string  `json:"title"`
	Year           int     `json:"year,omitempty"`
	Cost           float64 `json:"cost,omitempty"`
	ImageURL       string  `json:"image_url,omitempty"`
	NumberOfCopies int     `json:"number_of_copies"`
	Status         *Status `json:"status"`
	Location       *Branch `json:"location"`
	Author         *string `json:"author,omitempty"`
	ISBN           *string `json:"isbn,omitempty"`
	DeweyIndex     *string `json:"dewey_index,omitempty"`
	Director       *string `json:"director,omitempty"`
}

func (a Asset) MarshalJSON() ([]byte, error) {
	out := assetJSON{
		ID:             a.ID,
		Kind:           a.Kind(),
		Title:          a.Title,
		Year:           a.Year,
		Cost:           a.Cost,
		ImageURL:       a.ImageURL,
		NumberOfCopies: a.NumberOfCopies,
		Status:         a.Status,
		Location:       a.Location,
	}

	switch v := a.Variant.(type) {
	case Book:
		out.Author, out.ISBN, out.DeweyIndex = &v.Author, &v.ISBN, &v.DeweyIndex
	case Video:
		out.Director = &v.Director
	}

	return json.Marshal(out)
}

func (a *Asset) UnmarshalJSON(data []byte) error {
	var in assetJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*a = Asset{
		ID:             in.ID,
		Title:          in.Title,
		Year:           in.Year,
		Cost:           in.Cost,
		ImageURL:       in.ImageURL,
		NumberOfCopies: in.NumberOfCopies,
		Status:         in.Status,
		Location:       in.Location,
	}

	switch in.Kind {
	case KindBook:
		a.Variant = Book{Author: deref(in.Author), ISBN: deref(in.ISBN), DeweyIndex: deref(in.DeweyIndex)}
	case KindVideo:
		a.Variant = Video{Director: deref(in.Director)}
	default:
		return fmt.Errorf("%w: %q", shared.ErrUnknownVariant, in.Kind)
	}

	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
