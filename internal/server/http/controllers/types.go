package controllers

import "time"

// Common request/response types for HTTP controllers

// errorResp is the body of every failed request.
type errorResp struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// statusResp describes the running service.
type statusResp struct {
	Status         string   `json:"status"`
	Service        string   `json:"service"`
	Version        string   `json:"version"`
	AllowedOrigins []string `json:"allowedOrigins"`
}

// subscriptionView is the public part of a stored subscription.
type subscriptionView struct {
	Endpoint  string    `json:"endpoint"`
	CreatedAt time.Time `json:"createdAt"`
}

// subscribeResp answers a successful subscription.
type subscribeResp struct {
	Success      bool             `json:"success"`
	Message      string           `json:"message"`
	Subscription subscriptionView `json:"subscription"`
}

// unsubscribeReq names the endpoint to remove.
type unsubscribeReq struct {
	Endpoint string `json:"endpoint"`
}

// unsubscribeResp reports whether a record was removed.
type unsubscribeResp struct {
	Success bool `json:"success"`
	Removed bool `json:"removed"`
}

// subscribersResp lists stored subscriptions.
type subscribersResp struct {
	Success     bool               `json:"success"`
	Count       int                `json:"count"`
	Subscribers []subscriptionView `json:"subscribers,omitempty"`
}
