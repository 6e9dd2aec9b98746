/*
codec.go - Payload serialization for storage adapters

PURPOSE:
  Adapters persist the kind discriminator and the payload as JSON side by
  side, and reconstruct the concrete union member on load. The kind switch
  lives here so adapters stay dumb about the taxonomy.
*/
package prontuario

import (
	"encoding/json"
	"fmt"
)

// MarshalPayload encodes a payload for storage.
func MarshalPayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, ErrMissingPayload
	}
	return json.Marshal(p)
}

// UnmarshalPayload reconstructs the concrete payload type for a kind.
func UnmarshalPayload(kind Kind, data []byte) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch kind {
	case KindAdmission:
		p, err = decode[AdmissionPayload](data)
	case KindMedicalCertificate:
		p, err = decode[MedicalCertificatePayload](data)
	case KindWarning:
		p, err = decode[WarningPayload](data)
	case KindPromotion:
		p, err = decode[PromotionPayload](data)
	case KindTransfer:
		p, err = decode[TransferPayload](data)
	case KindVacation:
		p, err = decode[VacationPayload](data)
	case KindTraining:
		p, err = decode[TrainingPayload](data)
	case KindCommendation:
		p, err = decode[CommendationPayload](data)
	case KindTermination:
		p, err = decode[TerminationPayload](data)
	case KindLeaveOfAbsence:
		p, err = decode[LeaveOfAbsencePayload](data)
	case KindSuspension:
		p, err = decode[SuspensionPayload](data)
	default:
		return nil, &KindError{Kind: kind}
	}
	return p, err
}

func decode[T Payload](data []byte) (Payload, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}
