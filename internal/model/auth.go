package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are JWT claims for a donor's qualification session token
type SessionClaims struct {
	SessionID string `json:"sessionId"`
	DonorID   string `json:"donorId"`
	RequestID string `json:"requestId"`
	jwt.RegisteredClaims
}

// StartQualificationRequest is the request body for starting a screening
type StartQualificationRequest struct {
	DonorID string `json:"donorId"`
}

// SubmitAnswerRequest carries one answer for the current question
type SubmitAnswerRequest struct {
	Value string `json:"value"`
}
