// Package draw implements the PC28 numeric game rule: deriving the three
// result digits from a keno draw and deciding which bet types win.
package draw

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
)

// KenoSize is the number of drawn keno numbers a round needs.
const KenoSize = 20

// Result holds the derived round outcome
type Result struct {
	A   int `json:"a"`
	B   int `json:"b"`
	C   int `json:"c"`
	Sum int `json:"sum"`
}

// Calculate derives the PC28 result from keno data:
// sort the numbers ascending, A = sum(index 0-5) mod 10,
// B = sum(index 6-11) mod 10, C = sum(index 12-17) mod 10, Sum = A+B+C.
func Calculate(kenoData []int) (Result, error) {
	if len(kenoData) < 18 {
		return Result{}, fmt.Errorf("keno data too short: %d numbers", len(kenoData))
	}

	sorted := make([]int, len(kenoData))
	copy(sorted, kenoData)
	sort.Ints(sorted)

	segment := func(from int) int {
		sum := 0
		for i := from; i < from+6; i++ {
			sum += sorted[i]
		}
		return sum % 10
	}

	a := segment(0)
	b := segment(6)
	c := segment(12)

	return Result{A: a, B: b, C: c, Sum: a + b + c}, nil
}

// GenerateKeno draws 20 unique numbers between 1 and 80 using rnd.
func GenerateKeno(rnd *rand.Rand) []int {
	numbers := make([]int, 80)
	for i := range numbers {
		numbers[i] = i + 1
	}
	rnd.Shuffle(len(numbers), func(i, j int) {
		numbers[i], numbers[j] = numbers[j], numbers[i]
	})
	return numbers[:KenoSize]
}

// KenoToJSON serializes keno data for storage
func KenoToJSON(data []int) string {
	bytes, _ := json.Marshal(data)
	return string(bytes)
}

// KenoFromJSON parses stored keno data
func KenoFromJSON(jsonStr string) ([]int, error) {
	var data []int
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return nil, fmt.Errorf("decode keno data: %w", err)
	}
	return data, nil
}

// CheckWin reports whether a bet of the given type and value wins against
// the result. Big covers sums 14-27, small 0-13.
func CheckWin(betType string, betValue int, result Result) bool {
	sum := result.Sum

	switch betType {
	case "number":
		return betValue == sum
	case "big":
		return sum >= 14 && sum <= 27
	case "small":
		return sum >= 0 && sum <= 13
	case "odd":
		return sum%2 == 1
	case "even":
		return sum%2 == 0
	case "big_odd":
		return sum >= 14 && sum%2 == 1
	case "big_even":
		return sum >= 14 && sum%2 == 0
	case "small_odd":
		return sum <= 13 && sum%2 == 1
	case "small_even":
		return sum <= 13 && sum%2 == 0
	default:
		return false
	}
}
