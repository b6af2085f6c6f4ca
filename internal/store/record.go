package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fpang/cinema-studio/internal/production"
)

// Asset keys within a project.
const narrationKey = "narration"

func sceneKey(id int) string {
	return fmt.Sprintf("scene-%d", id)
}

// record is the persisted project document. Asset bytes are stored apart
// from it and referenced by key.
type record struct {
	ID            string                   `json:"id" dynamodbav:"-"`
	Configuration production.Configuration `json:"configuration" dynamodbav:"configuration"`
	SynopsisInput production.SynopsisInput `json:"synopsisInput" dynamodbav:"synopsisInput"`
	Synopsis      string                   `json:"synopsis" dynamodbav:"synopsis"`
	Rendered      bool                     `json:"rendered" dynamodbav:"rendered"`
	Title         string                   `json:"title,omitempty" dynamodbav:"title,omitempty"`
	Scenes        []sceneRecord            `json:"scenes,omitempty" dynamodbav:"scenes,omitempty"`
	Narration     *assetRef                `json:"narration,omitempty" dynamodbav:"narration,omitempty"`
	CreatedAt     int64                    `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt     int64                    `json:"updatedAt" dynamodbav:"updatedAt"`
}

type sceneRecord struct {
	ID          int       `json:"id" dynamodbav:"id"`
	Label       string    `json:"label" dynamodbav:"label"`
	Content     string    `json:"content" dynamodbav:"content"`
	ImagePrompt string    `json:"imagePrompt" dynamodbav:"imagePrompt"`
	Image       *assetRef `json:"image,omitempty" dynamodbav:"image,omitempty"`
}

type assetRef struct {
	Key      string `json:"key" dynamodbav:"key"`
	MIMEType string `json:"mimeType" dynamodbav:"mimeType"`
	// Digest is the hex SHA-256 of the asset bytes.
	Digest string `json:"digest,omitempty" dynamodbav:"digest,omitempty"`
}

func newAssetRef(key string, a *production.Asset) *assetRef {
	sum := sha256.Sum256(a.Data)
	return &assetRef{Key: key, MIMEType: a.MIMEType, Digest: hex.EncodeToString(sum[:])}
}

// encode splits p into its document and its assets keyed by asset key.
func encode(p *Project) (record, map[string]*production.Asset) {
	rec := record{
		ID:            p.ID,
		Configuration: p.Configuration,
		SynopsisInput: p.SynopsisInput,
		Synopsis:      p.Synopsis,
		CreatedAt:     p.CreatedAt.UnixMilli(),
		UpdatedAt:     p.UpdatedAt.UnixMilli(),
	}
	assets := make(map[string]*production.Asset)
	if p.State == nil {
		return rec, assets
	}

	rec.Rendered = true
	rec.Title = p.State.Script.Title
	rec.Scenes = make([]sceneRecord, len(p.State.Script.Scenes))
	for i, sc := range p.State.Script.Scenes {
		rec.Scenes[i] = sceneRecord{ID: sc.ID, Label: sc.Label, Content: sc.Content, ImagePrompt: sc.ImagePrompt}
		if sc.HasImage() {
			key := sceneKey(sc.ID)
			rec.Scenes[i].Image = newAssetRef(key, sc.Image)
			assets[key] = sc.Image
		}
	}
	if p.State.Narration != nil && len(p.State.Narration.Data) > 0 {
		rec.Narration = newAssetRef(narrationKey, p.State.Narration)
		assets[narrationKey] = p.State.Narration
	}
	return rec, assets
}

// assetKeys lists the asset keys the document references.
func (r record) assetKeys() []assetRef {
	var refs []assetRef
	for _, sc := range r.Scenes {
		if sc.Image != nil {
			refs = append(refs, *sc.Image)
		}
	}
	if r.Narration != nil {
		refs = append(refs, *r.Narration)
	}
	return refs
}

// decode rebuilds a project from its document and asset bytes. A referenced
// asset missing from data leaves the scene without an image.
func decode(rec record, data map[string][]byte) *Project {
	p := &Project{
		ID:            rec.ID,
		Configuration: rec.Configuration,
		SynopsisInput: rec.SynopsisInput,
		Synopsis:      rec.Synopsis,
		CreatedAt:     time.UnixMilli(rec.CreatedAt).UTC(),
		UpdatedAt:     time.UnixMilli(rec.UpdatedAt).UTC(),
	}
	if !rec.Rendered {
		return p
	}

	asset := func(ref *assetRef) *production.Asset {
		if ref == nil {
			return nil
		}
		b, ok := data[ref.Key]
		if !ok {
			return nil
		}
		return &production.Asset{Data: b, MIMEType: ref.MIMEType}
	}

	state := &production.State{Script: production.ScriptResult{
		Title:  rec.Title,
		Scenes: make([]production.Scene, len(rec.Scenes)),
	}}
	for i, sc := range rec.Scenes {
		state.Script.Scenes[i] = production.Scene{
			ID:          sc.ID,
			Label:       sc.Label,
			Content:     sc.Content,
			ImagePrompt: sc.ImagePrompt,
			Image:       asset(sc.Image),
		}
	}
	state.Narration = asset(rec.Narration)
	p.State = state
	return p
}

func (r record) summary() Summary {
	return Summary{
		ID:         r.ID,
		Title:      r.Title,
		Rendered:   r.Rendered,
		SceneCount: len(r.Scenes),
		CreatedAt:  time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt:  time.UnixMilli(r.UpdatedAt).UTC(),
	}
}
