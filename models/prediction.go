package models

import "predsheet/pkg/predictions"

// Prediction is a parsed match record stored with its conversion, in OCR order.
type Prediction struct {
	ID           uint   `gorm:"primaryKey"`
	ConversionID string `gorm:"size:36;index;not null"`
	Position     int    `gorm:"not null"`
	League       string `gorm:"size:255"`
	Time         string `gorm:"size:16"`
	Home         string `gorm:"size:255;not null"`
	Away         string `gorm:"size:255;not null"`
	BestBet      string `gorm:"size:255"`
	Note         string `gorm:"type:text"`
}

// PredictionsFromRecords converts parsed records into rows for conversionID.
func PredictionsFromRecords(conversionID string, recs []predictions.MatchRecord) []Prediction {
	out := make([]Prediction, len(recs))
	for i, r := range recs {
		out[i] = Prediction{
			ConversionID: conversionID,
			Position:     i,
			League:       r.League,
			Time:         r.Time,
			Home:         r.Home,
			Away:         r.Away,
			BestBet:      r.BestBet,
			Note:         r.Note,
		}
	}
	return out
}

// Record returns the stored prediction as a match record.
func (p Prediction) Record() predictions.MatchRecord {
	return predictions.MatchRecord{
		League:  p.League,
		Time:    p.Time,
		Home:    p.Home,
		Away:    p.Away,
		BestBet: p.BestBet,
		Note:    p.Note,
	}
}
