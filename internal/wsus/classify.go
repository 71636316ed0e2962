package wsus

// Bucket is the update state of one computer target.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketError
	BucketNeedingUpdates
	BucketUpToDate
	BucketUnknown
)

func (b Bucket) String() string {
	switch b {
	case BucketError:
		return "Error"
	case BucketNeedingUpdates:
		return "NeedingUpdates"
	case BucketUpToDate:
		return "UpToDate"
	case BucketUnknown:
		return "Unknown"
	default:
		return "None"
	}
}

// bucketRules are evaluated in this order.
var bucketRules = []struct {
	bucket Bucket
	match  func(*ComputerTargetSummary) bool
}{
	{BucketError, func(s *ComputerTargetSummary) bool {
		return s.FailedCount != 0
	}},
	{BucketNeedingUpdates, func(s *ComputerTargetSummary) bool {
		return s.FailedCount == 0 && s.NotInstalledCount+s.DownloadedCount+s.InstalledPendingRebootCount != 0
	}},
	{BucketUpToDate, func(s *ComputerTargetSummary) bool {
		return s.FailedCount == 0 && s.UnknownCount == 0 && s.pendingCount() == 0
	}},
	{BucketUnknown, func(s *ComputerTargetSummary) bool {
		return s.UnknownCount != 0 && s.FailedCount == 0 && s.pendingCount() == 0
	}},
}

// Classify returns the first bucket whose rule matches s.
func Classify(s *ComputerTargetSummary) Bucket {
	if s == nil {
		return BucketNone
	}
	for _, r := range bucketRules {
		if r.match(s) {
			return r.bucket
		}
	}
	return BucketNone
}

// Buckets returns every bucket whose rule matches s. Group counts are built
// from this, so a summary is counted once per matching rule.
func Buckets(s *ComputerTargetSummary) []Bucket {
	if s == nil {
		return nil
	}
	var out []Bucket
	for _, r := range bucketRules {
		if r.match(s) {
			out = append(out, r.bucket)
		}
	}
	return out
}

// InBucket reports whether the rule for b matches s.
func InBucket(s *ComputerTargetSummary, b Bucket) bool {
	if s == nil {
		return false
	}
	for _, r := range bucketRules {
		if r.bucket == b {
			return r.match(s)
		}
	}
	return false
}
