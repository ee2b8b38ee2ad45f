package acquisition

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// rawPrefixLen bounds how much of a bad response ends up in the diagnostic.
const rawPrefixLen = 120

// parseResponse interprets one :READ? response for the given chunk size.
// Exactly 3*chunk numbers are rows of (reading, instrument time, status);
// exactly chunk numbers are readings only, with time and status set to NaN.
// Anything else is a malformed response: the error describes the unexpected
// length and the start of the raw text, and the caller continues the run.
func parseResponse(resp string, chunk int) ([]chunkRow, error) {
	fields := strings.FieldsFunc(resp, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	nums := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, malformed(resp, len(fields), chunk)
		}
		nums = append(nums, v)
	}

	switch len(nums) {
	case 3 * chunk:
		rows := make([]chunkRow, chunk)
		for i := 0; i < chunk; i++ {
			rows[i] = chunkRow{
				Reading:  nums[3*i],
				InstTime: nums[3*i+1],
				Status:   nums[3*i+2],
			}
		}
		return rows, nil
	case chunk:
		rows := make([]chunkRow, chunk)
		for i, v := range nums {
			rows[i] = chunkRow{Reading: v, InstTime: math.NaN(), Status: math.NaN()}
		}
		return rows, nil
	default:
		return nil, malformed(resp, len(nums), chunk)
	}
}

// chunkRow is one parsed triple before the session timestamp is stamped on.
type chunkRow struct {
	Reading  float64
	InstTime float64
	Status   float64
}

func malformed(resp string, got, chunk int) error {
	if len(resp) > rawPrefixLen {
		resp = resp[:rawPrefixLen]
	}
	return fmt.Errorf("unexpected response length=%d (chunk=%d): %s", got, chunk, resp)
}
