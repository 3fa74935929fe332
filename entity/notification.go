package entity

// Notification carries the fields of an inbound ResultURL or SuccessURL
// callback. Both share the same shape; they differ only in the password
// used for verification.
type Notification struct {
	// Payment amount exactly as sent by the gateway
	OutSum string `json:"out_sum" bson:"out_sum"`
	// Invoice ID exactly as sent by the gateway
	InvID string `json:"inv_id" bson:"inv_id"`
	// Supplied signature, hex in any letter case
	SignatureValue string `json:"signature_value" bson:"signature_value"`
	// Echoed merchant parameters, unprefixed keys
	Custom CustomParams `json:"custom,omitempty" bson:"custom,omitempty"`
}

func (n *Notification) DataType() string {
	return "notification"
}
