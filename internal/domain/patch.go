package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ContactInput is the payload for creating a contact. Designation is accepted as an alias for
// Position.
type ContactInput struct {
	Name        string  `json:"name"`
	Position    string  `json:"position"`
	Designation string  `json:"designation"`
	Location    string  `json:"location"`
	Email       *string `json:"email"`
}

// ToContact converts the input into a normalized contact.
func (in ContactInput) ToContact() (ContactRecord, error) {
	position := in.Position
	if position == "" {
		position = in.Designation
	}

	c := ContactRecord{
		Name:     in.Name,
		Position: position,
		Location: in.Location,
		Email:    in.Email,
	}.Normalized()

	if c.Name == "" {
		return ContactRecord{}, fmt.Errorf("%w: name is required", ErrInvalidContact)
	}
	return c, nil
}

// ContactPatch is a partial update. Nil fields are left unchanged; ClearEmail sets the email to
// null.
type ContactPatch struct {
	Name       *string
	Position   *string
	Location   *string
	Email      *string
	ClearEmail bool
}

type patchFields struct {
	Name        *string `mapstructure:"name"`
	Position    *string `mapstructure:"position"`
	Designation *string `mapstructure:"designation"`
	Location    *string `mapstructure:"location"`
	Email       *string `mapstructure:"email"`
}

// ParsePatch decodes a JSON object into a ContactPatch. Unknown keys, an id key and non-string
// values are rejected.
func ParsePatch(fields map[string]any) (ContactPatch, error) {
	if len(fields) == 0 {
		return ContactPatch{}, fmt.Errorf("%w: no fields to update", ErrInvalidContact)
	}
	if _, ok := fields["id"]; ok {
		return ContactPatch{}, fmt.Errorf("%w: id cannot be changed", ErrInvalidContact)
	}

	var decoded patchFields
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &decoded,
	})
	if err != nil {
		return ContactPatch{}, fmt.Errorf("create patch decoder: %w", err)
	}
	if decodeErr := decoder.Decode(fields); decodeErr != nil {
		return ContactPatch{}, fmt.Errorf("%w: %w", ErrInvalidContact, decodeErr)
	}

	patch := ContactPatch{
		Name:     decoded.Name,
		Position: decoded.Position,
		Location: decoded.Location,
		Email:    decoded.Email,
	}
	if patch.Position == nil {
		patch.Position = decoded.Designation
	}
	if v, ok := fields["email"]; ok && v == nil {
		patch.ClearEmail = true
	}

	return patch, nil
}

// Apply returns c with the patch applied and normalized.
func (p ContactPatch) Apply(c ContactRecord) (ContactRecord, error) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Position != nil {
		c.Position = *p.Position
	}
	if p.Location != nil {
		c.Location = *p.Location
	}
	switch {
	case p.ClearEmail:
		c.Email = nil
	case p.Email != nil:
		c.Email = p.Email
	}

	c = c.Normalized()
	if c.Name == "" {
		return ContactRecord{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidContact)
	}
	return c, nil
}
