package handlers

import (
	"gorm.io/gorm"

	"github.com/code-100-precent/LingVoice/pkg/voiceauth"
	"github.com/code-100-precent/LingVoice/pkg/voiceclone"
)

type Handlers struct {
	db           *gorm.DB
	engine       *voiceauth.Engine
	cloneService voiceclone.Service
	maxUploadMB  int64
}

func NewHandlers(db *gorm.DB, engine *voiceauth.Engine, cloneService voiceclone.Service, maxUploadMB int64) *Handlers {
	if maxUploadMB <= 0 {
		maxUploadMB = 32
	}
	return &Handlers{
		db:           db,
		engine:       engine,
		cloneService: cloneService,
		maxUploadMB:  maxUploadMB,
	}
}
