package player

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Profile is the operator's self-description. It is stored separately from
// State and never affects action resolution.
type Profile struct {
	Nickname    string `json:"nickname"`
	Bio         string `json:"bio,omitempty"`
	Status      string `json:"status,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Gender      string `json:"gender"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

const (
	NicknameMinLen = 3
	NicknameMaxLen = 20
	// PhotoMaxBytes caps the decoded size of an uploaded photo.
	PhotoMaxBytes = 5 * 1024 * 1024
)

// Genders lists the accepted gender values.
var Genders = []string{"male", "female", "other"}

// FieldError names the profile field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Normalize trims surrounding whitespace from text fields.
func (p Profile) Normalize() Profile {
	p.Nickname = strings.TrimSpace(p.Nickname)
	p.Bio = strings.TrimSpace(p.Bio)
	p.Status = strings.TrimSpace(p.Status)
	p.DateOfBirth = strings.TrimSpace(p.DateOfBirth)
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
	p.PhotoURL = strings.TrimSpace(p.PhotoURL)
	return p
}

// Validate checks a normalized profile. It returns a *FieldError.
func (p Profile) Validate() error {
	n := utf8.RuneCountInString(p.Nickname)
	switch {
	case n == 0:
		return &FieldError{Field: "nickname", Message: "nickname is required"}
	case n < NicknameMinLen:
		return &FieldError{Field: "nickname", Message: fmt.Sprintf("nickname must be at least %d characters", NicknameMinLen)}
	case n > NicknameMaxLen:
		return &FieldError{Field: "nickname", Message: fmt.Sprintf("nickname must be at most %d characters", NicknameMaxLen)}
	}
	if p.Gender == "" {
		return &FieldError{Field: "gender", Message: "gender is required"}
	}
	known := false
	for _, g := range Genders {
		if g == p.Gender {
			known = true
			break
		}
	}
	if !known {
		return &FieldError{Field: "gender", Message: fmt.Sprintf("unknown gender %q", p.Gender)}
	}
	if p.PhotoURL != "" {
		if err := validatePhoto(p.PhotoURL); err != nil {
			return err
		}
	}
	return nil
}

// validatePhoto accepts only base64 image data URIs within PhotoMaxBytes.
func validatePhoto(uri string) error {
	meta, data, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(meta, "data:image/") || !strings.HasSuffix(meta, ";base64") {
		return &FieldError{Field: "photoUrl", Message: "photo must be an image data URI"}
	}
	if base64.StdEncoding.DecodedLen(len(data)) > PhotoMaxBytes+2 {
		return &FieldError{Field: "photoUrl", Message: "photo must be 5MB or smaller"}
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return &FieldError{Field: "photoUrl", Message: "photo is not valid base64"}
	}
	if len(decoded) > PhotoMaxBytes {
		return &FieldError{Field: "photoUrl", Message: "photo must be 5MB or smaller"}
	}
	return nil
}
