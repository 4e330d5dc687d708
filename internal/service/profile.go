package service

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/emersion/go-vcard"
	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"

	"bizcard/internal/capture"
	"bizcard/internal/models"
	"bizcard/internal/store"
)

const (
	avatarSize    = 512
	defaultQRSize = 256
)

// ProfileService manages the owner's own digital card
type ProfileService struct {
	profiles *store.Profiles
	blobs    store.BlobStore
}

// NewProfileService creates a new profile service
func NewProfileService(profiles *store.Profiles, blobs store.BlobStore) *ProfileService {
	return &ProfileService{profiles: profiles, blobs: blobs}
}

// Get returns the digital card of ownerID; an owner who never saved one gets
// an empty card
func (s *ProfileService) Get(ctx context.Context, ownerID string) (models.DigitalCard, error) {
	card, err := s.profiles.Get(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return models.DigitalCard{}, nil
	}
	return card, err
}

// Put replaces the digital card of ownerID. The avatar is owned by
// SetAvatar and DeleteAvatar; whatever avatar the update carries is ignored.
func (s *ProfileService) Put(ctx context.Context, ownerID string, card models.DigitalCard) (models.DigitalCard, error) {
	card = trimDigitalCard(card)
	current, err := s.Get(ctx, ownerID)
	if err != nil {
		return models.DigitalCard{}, err
	}
	card.AvatarRef = current.AvatarRef
	if err := s.profiles.Put(ctx, ownerID, card); err != nil {
		return models.DigitalCard{}, err
	}
	return card, nil
}

// SetAvatar crops an uploaded picture to a square PNG, stores it and links
// it from the digital card
func (s *ProfileService) SetAvatar(ctx context.Context, ownerID string, r io.Reader) (models.DigitalCard, error) {
	img, err := capture.DecodeImage(r)
	if err != nil {
		return models.DigitalCard{}, err
	}
	img = imaging.Fill(img, avatarSize, avatarSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return models.DigitalCard{}, errors.Wrap(err, "failed to encode avatar")
	}
	ref, err := s.blobs.Upload(ctx, store.AvatarPath(ownerID), "image/png", buf.Bytes())
	if err != nil {
		return models.DigitalCard{}, err
	}

	card, err := s.Get(ctx, ownerID)
	if err != nil {
		return models.DigitalCard{}, err
	}
	card.AvatarRef = ref
	if err := s.profiles.Put(ctx, ownerID, card); err != nil {
		return models.DigitalCard{}, err
	}
	return card, nil
}

// DeleteAvatar unlinks the avatar from the digital card and removes its image
func (s *ProfileService) DeleteAvatar(ctx context.Context, ownerID string) (models.DigitalCard, error) {
	card, err := s.Get(ctx, ownerID)
	if err != nil {
		return models.DigitalCard{}, err
	}
	if card.AvatarRef == "" {
		return card, nil
	}
	card.AvatarRef = ""
	if err := s.profiles.Put(ctx, ownerID, card); err != nil {
		return models.DigitalCard{}, err
	}
	if err := s.blobs.Delete(ctx, store.AvatarPath(ownerID)); err != nil && !errors.Is(err, store.ErrNotFound) {
		return models.DigitalCard{}, err
	}
	return card, nil
}

// VCard renders the digital card of ownerID as a vCard document
func (s *ProfileService) VCard(ctx context.Context, ownerID string) (string, error) {
	card, err := s.Get(ctx, ownerID)
	if err != nil {
		return "", err
	}
	return VCard(card)
}

// QR encodes the website of the digital card, or the whole vCard when the
// card has no website, as a PNG QR code
func (s *ProfileService) QR(ctx context.Context, ownerID string, size int) ([]byte, error) {
	card, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	content := card.Website
	if content == "" {
		if content, err = VCard(card); err != nil {
			return nil, err
		}
	}
	if size <= 0 || size > 1024 {
		size = defaultQRSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode qr code")
	}
	return png, nil
}

// VCard renders card as a vCard 4.0 document
func VCard(card models.DigitalCard) (string, error) {
	vc := make(vcard.Card)
	vc.SetValue(vcard.FieldVersion, "4.0")
	vc.SetValue(vcard.FieldFormattedName, card.Name)

	add := func(key, value string, types ...string) {
		if value == "" {
			return
		}
		field := &vcard.Field{Value: value}
		if len(types) > 0 {
			field.Params = vcard.Params{vcard.ParamType: types}
		}
		vc.Add(key, field)
	}
	add(vcard.FieldOrganization, card.Company)
	add(vcard.FieldTitle, card.Title)
	add(vcard.FieldTelephone, card.Phone, vcard.TypeWork, vcard.TypeVoice)
	add(vcard.FieldEmail, card.Email, vcard.TypeWork)
	add(vcard.FieldURL, card.Website)
	add(vcard.FieldPhoto, card.AvatarRef)
	if card.Address != "" {
		// the card keeps the address as free text, so it goes in the street part
		vc.AddAddress(&vcard.Address{
			Field:         &vcard.Field{Params: vcard.Params{vcard.ParamType: {vcard.TypeWork}}},
			StreetAddress: card.Address,
		})
	}

	var b strings.Builder
	if err := vcard.NewEncoder(&b).Encode(vc); err != nil {
		return "", errors.Wrap(err, "failed to encode vcard")
	}
	return b.String(), nil
}

func trimDigitalCard(c models.DigitalCard) models.DigitalCard {
	return models.DigitalCard{
		Name:      strings.TrimSpace(c.Name),
		Title:     strings.TrimSpace(c.Title),
		Company:   strings.TrimSpace(c.Company),
		Phone:     strings.TrimSpace(c.Phone),
		Email:     strings.TrimSpace(c.Email),
		Website:   strings.TrimSpace(c.Website),
		Address:   strings.TrimSpace(c.Address),
		AvatarRef: strings.TrimSpace(c.AvatarRef),
	}
}
