package utils

import (
	"encoding/json"
	"net/http"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// Success renvoie une réponse 200 avec l'enveloppe standard
func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

// Error log la cause sous-jacente et renvoie le message au client
func Error(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		LogError("%s: %v", message, err)
	} else {
		LogError("%s", message)
	}
	JSON(w, status, APIResponse{Success: false, Error: message})
}

// ErrorSimple renvoie une erreur sans cause sous-jacente
func ErrorSimple(w http.ResponseWriter, status int, message string) {
	LogError("[%d] %s", status, message)
	JSON(w, status, APIResponse{Success: false, Error: message})
}

func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, APIResponse{Success: true, Message: msg})
}
