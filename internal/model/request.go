package model

import "time"

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestFulfilled RequestStatus = "fulfilled"
	RequestCancelled RequestStatus = "cancelled"
)

type UrgencyLevel string

const (
	UrgencyImmediate     UrgencyLevel = "immediate"
	UrgencyWithin12Hours UrgencyLevel = "within12Hours"
	UrgencyWithin24Hours UrgencyLevel = "within24Hours"
	UrgencyWithin48Hours UrgencyLevel = "within48Hours"
)

type Location struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// BloodRequest is a recipient's open call for a donor.
type BloodRequest struct {
	ID            string        `json:"id" bson:"_id"`
	FullName      string        `json:"fullName" bson:"fullName"`
	BloodType     string        `json:"bloodType" bson:"bloodType"`
	ContactNumber string        `json:"contactNumber" bson:"contactNumber"`
	HospitalName  string        `json:"hospitalName" bson:"hospitalName"`
	Reason        string        `json:"reason" bson:"reason"`
	UrgencyLevel  UrgencyLevel  `json:"urgencyLevel" bson:"urgencyLevel"`
	Status        RequestStatus `json:"status" bson:"status"`
	Location      Location      `json:"location" bson:"location"`
	Address       string        `json:"address" bson:"address"`
	RequesterID   string        `json:"requesterId" bson:"requesterId"`
	DonorID       string        `json:"donorId,omitempty" bson:"donorId,omitempty"`
	AcceptKey     string        `json:"-" bson:"acceptKey,omitempty"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updatedAt"`
}
