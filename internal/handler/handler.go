package handler

import (
	"github.com/bpal-app/bpal-backend/internal/scoring"
)

// Engine est le moteur de points partagé par les handlers, injecté au démarrage.
var Engine *scoring.Engine

func InitEngine(e *scoring.Engine) {
	Engine = e
}
