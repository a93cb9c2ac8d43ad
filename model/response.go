package model

import "time"

// SessionResponse is the envelope every session endpoint returns.
type SessionResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Session *Session `json:"session,omitempty"`
	Gallery *Gallery `json:"gallery,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type Session struct {
	ID               string    `json:"id"`
	HasImage         bool      `json:"hasImage"`
	FileName         string    `json:"fileName,omitempty"`
	UploadedImage    string    `json:"uploadedImage,omitempty"`
	Outfits          []Outfit  `json:"outfits"`
	ErrorMessage     string    `json:"errorMessage,omitempty"`
	IsLoading        bool      `json:"isLoading"`
	IsGeneratingMore bool      `json:"isGeneratingMore"`
	Generation       uint64    `json:"generation"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type Outfit struct {
	Index       int    `json:"index"`
	Style       string `json:"style"`
	Src         string `json:"src"`
	FileName    string `json:"fileName"`
	DownloadURL string `json:"downloadUrl"`
}

// Gallery は画面に並べるカードの状態
type Gallery struct {
	Cards            []Card `json:"cards"`
	ErrorBanner      string `json:"errorBanner,omitempty"`
	EmptyMessage     string `json:"emptyMessage,omitempty"`
	ShowGenerateMore bool   `json:"showGenerateMore"`
	CanGenerate      bool   `json:"canGenerate"`
}

type CardKind string

const (
	CardOutfit   CardKind = "outfit"
	CardSkeleton CardKind = "skeleton"
)

type Card struct {
	Kind   CardKind `json:"kind"`
	Style  string   `json:"style,omitempty"`
	Outfit *Outfit  `json:"outfit,omitempty"`
}

type StylesResponse struct {
	Success          bool     `json:"success"`
	Styles           []string `json:"styles"`
	InitialBatchSize int      `json:"initialBatchSize"`
}
