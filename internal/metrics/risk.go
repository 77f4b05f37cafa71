package metrics

import "github.com/solderlabs/cortex/internal/domain"

// Risk is the concentration profile and score derived from a wallet's open
// positions.
type Risk struct {
	Score                 int
	LargestPositionPct    float64
	ProtocolConcentration float64
	ProtocolCount         int
	PositionCount         int
}

// ComputeRisk derives the concentration profile from open positions and
// scores it. Position values are taken as absolute USD exposure.
func ComputeRisk(positions []domain.Position) Risk {
	var r Risk
	r.PositionCount = len(positions)

	var total, largest float64
	byProtocol := make(map[domain.Protocol]float64)

	for i := range positions {
		v := positions[i].USDValue
		if v < 0 {
			v = -v
		}
		total += v
		if v > largest {
			largest = v
		}
		byProtocol[positions[i].Protocol] += v
	}
	r.ProtocolCount = len(byProtocol)

	if total > 0 {
		r.LargestPositionPct = largest / total
		var maxProto float64
		for _, v := range byProtocol {
			if v > maxProto {
				maxProto = v
			}
		}
		r.ProtocolConcentration = maxProto / total
	}

	r.Score = ScoreRisk(r.LargestPositionPct, r.ProtocolConcentration, r.ProtocolCount, r.PositionCount)
	return r
}

// ScoreRisk combines the concentration inputs into a score in [0,100]. The
// weights are a stable contract with downstream consumers.
func ScoreRisk(largestPct, protocolConcentration float64, protocolCount, positionCount int) int {
	score := 0

	concentration := int(largestPct * 40)
	if concentration > 40 {
		concentration = 40
	}
	score += concentration

	platform := int(protocolConcentration * 30)
	if platform > 30 {
		platform = 30
	}
	score += platform

	switch protocolCount {
	case 0:
		// No exposure, no diversification penalty.
	case 1:
		score += 20
	case 2:
		score += 10
	case 3:
		score += 5
	}

	switch {
	case positionCount == 0:
		score += 10
	case positionCount <= 3:
		score += 5
	case positionCount <= 10:
		// Healthy spread.
	default:
		score += 5
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}
