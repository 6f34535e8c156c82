// Package models defines the core data structures for ChatBotCore.
//
// It includes types for inbound responses, delivery receipts, attachments and
// generated documents, which are shared across modules.
package models

import "errors"

// AttachmentKind classifies the media type of an inbound attachment.
type AttachmentKind string

const (
	// AttachmentKindImage is a photo or image message.
	AttachmentKindImage AttachmentKind = "image"
	// AttachmentKindDocument is a document (PDF, etc.) message.
	AttachmentKindDocument AttachmentKind = "document"
	// AttachmentKindVideo is a video message.
	AttachmentKindVideo AttachmentKind = "video"
)

// Attachment carries the binary payload of a non-text inbound message.
type Attachment struct {
	Kind     AttachmentKind `json:"kind"`
	Data     []byte         `json:"-"`
	MimeType string         `json:"mime_type,omitempty"`
	FileName string         `json:"file_name,omitempty"`
}

// Document references a generated output document to be delivered to a user.
type Document struct {
	Data     []byte `json:"-"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption,omitempty"`
}

// Error variables for better error handling and testability
var (
	ErrEmptyRecipient        = errors.New("recipient cannot be empty")
	ErrEmptyUserID           = errors.New("user id cannot be empty")
	ErrInvalidFlow           = errors.New("invalid flow identifier")
	ErrInvalidStep           = errors.New("step is not valid for flow")
	ErrMissingAttachment     = errors.New("an image attachment is required")
	ErrInvalidAttachmentKind = errors.New("attachment is not an image")
	ErrIncompleteCredential  = errors.New("credential recognition response is missing required fields")
)

// MessageStatus represents the delivery status of a message.
type MessageStatus string

const (
	// MessageStatusSent indicates the message was sent.
	MessageStatusSent MessageStatus = "sent"
	// MessageStatusDelivered indicates the message was delivered.
	MessageStatusDelivered MessageStatus = "delivered"
	// MessageStatusRead indicates the message was read.
	MessageStatusRead MessageStatus = "read"
	// MessageStatusFailed indicates the message failed to send.
	MessageStatusFailed MessageStatus = "failed"
)

// Receipt records a delivery status change for an outbound message.
type Receipt struct {
	To     string        `json:"to"`
	Status MessageStatus `json:"status"`
	Time   int64         `json:"time"`
}

// Response represents an incoming message from a user, optionally carrying a
// downloaded attachment.
type Response struct {
	From       string      `json:"from"`
	Body       string      `json:"body"`
	Time       int64       `json:"time"`
	Attachment *Attachment `json:"attachment,omitempty"`
}
