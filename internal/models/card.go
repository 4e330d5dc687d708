package models

import "strings"

// Card represents a scanned business card as stored in the cards collection
type Card struct {
	ID                 string    `json:"id"`
	OwnerID            string    `json:"userId"`
	Name               Bilingual `json:"name"`
	Title              Bilingual `json:"title"`
	CompanyName        Bilingual `json:"companyName"`
	Address            Bilingual `json:"address"`
	Phone              string    `json:"phone"`
	Email              string    `json:"email"`
	CompanyDescription string    `json:"companyDescription"`
	Notes              string    `json:"notes"`
	FrontImageRef      string    `json:"cardFrontImageUrl"`
	BackImageRef       string    `json:"cardBackImageUrl,omitempty"`
	CreatedAt          Timestamp `json:"createdAt"`
}

// CardPatch carries the editable fields of a card. Nil fields are left untouched.
type CardPatch struct {
	Name        *Bilingual `json:"name,omitempty"`
	Title       *Bilingual `json:"title,omitempty"`
	CompanyName *Bilingual `json:"companyName,omitempty"`
	Address     *Bilingual `json:"address,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p CardPatch) IsEmpty() bool {
	return p.Name == nil && p.Title == nil && p.CompanyName == nil && p.Address == nil &&
		p.Phone == nil && p.Email == nil && p.Notes == nil
}

// Fields returns the partial document update for the patch, keyed by the
// persisted field names.
func (p CardPatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.Name != nil {
		fields["name"] = p.Name.Trim()
	}
	if p.Title != nil {
		fields["title"] = p.Title.Trim()
	}
	if p.CompanyName != nil {
		fields["companyName"] = p.CompanyName.Trim()
	}
	if p.Address != nil {
		fields["address"] = p.Address.Trim()
	}
	if p.Phone != nil {
		fields["phone"] = strings.TrimSpace(*p.Phone)
	}
	if p.Email != nil {
		fields["email"] = strings.TrimSpace(*p.Email)
	}
	if p.Notes != nil {
		fields["notes"] = *p.Notes
	}
	return fields
}

// Apply copies the patch onto a card in memory.
func (p CardPatch) Apply(c *Card) {
	if p.Name != nil {
		c.Name = p.Name.Trim()
	}
	if p.Title != nil {
		c.Title = p.Title.Trim()
	}
	if p.CompanyName != nil {
		c.CompanyName = p.CompanyName.Trim()
	}
	if p.Address != nil {
		c.Address = p.Address.Trim()
	}
	if p.Phone != nil {
		c.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Email != nil {
		c.Email = strings.TrimSpace(*p.Email)
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
}

// Extraction is the structured result of analysing a card's images
type Extraction struct {
	Name               Bilingual `json:"name"`
	Title              Bilingual `json:"title"`
	CompanyName        Bilingual `json:"companyName"`
	Address            Bilingual `json:"address"`
	Phone              string    `json:"phone"`
	Email              string    `json:"email"`
	CompanyDescription string    `json:"companyDescription"`
}

// HasContactData reports whether at least one extracted contact field is set.
func (e Extraction) HasContactData() bool {
	return !e.Name.IsEmpty() || !e.Title.IsEmpty() || !e.CompanyName.IsEmpty() ||
		!e.Address.IsEmpty() || strings.TrimSpace(e.Phone) != "" || strings.TrimSpace(e.Email) != ""
}

// DigitalCard is the user's own shareable profile, one per owner
type DigitalCard struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Company   string `json:"company"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Website   string `json:"website"`
	Address   string `json:"address"`
	AvatarRef string `json:"avatarUrl"`
}

// SaveCardRequest represents the body of a scan save request
type SaveCardRequest struct {
	Notes string     `json:"notes"`
	Edits *CardPatch `json:"edits,omitempty"`
}

// SaveCardResponse represents the response of a successful save
type SaveCardResponse struct {
	Card       Card     `json:"card"`
	Duplicates []string `json:"possibleDuplicates"`
}

// SearchRequest represents the body of a natural-language card search
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse represents the AI search answer
type SearchResponse struct {
	Results string `json:"results"`
}
