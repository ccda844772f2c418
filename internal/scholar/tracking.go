package scholar

import "math"

// TrackingReport is the display form of an augmentation's target image
// tracking score.
type TrackingReport struct {
	// Score is the raw value reported by the service.
	Score float64
	// Stars maps the raw 0-100 score onto a 0-5 scale.
	Stars int
	// Pending is true while the service is still processing a freshly
	// uploaded target image and has not scored it yet.
	Pending bool
	// Improvable is true for low scores where a different target image
	// would track noticeably better.
	Improvable bool
}

// BucketTrackingScore converts a raw tracking score into its display bucket.
// The service reports scores on a 0-100 scale and a negative value while
// processing; the star bucket is the score floor-divided by 20.
func BucketTrackingScore(score float64) TrackingReport {
	if score < 0 {
		return TrackingReport{Score: score, Pending: true}
	}
	return TrackingReport{
		Score:      score,
		Stars:      int(math.Floor(score / 20)),
		Improvable: score < 30,
	}
}
