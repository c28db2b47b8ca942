package calc

import (
	"math"
	"testing"

	"riskwatch/src/model"
)

const tol = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < tol }

func pos(side model.Side, entry, current, liq, size, collateral float64) model.Position {
	return model.Position{
		Asset:            "BTC",
		Side:             side,
		EntryPrice:       entry,
		CurrentPrice:     current,
		LiquidationPrice: liq,
		Size:             size,
		Collateral:       collateral,
	}
}

func TestValue_LongAndShort(t *testing.T) {
	// LONG: price up 10% on 1000 notional => pnl 100
	v, err := Value(500, 1000, 100, 110, model.SideLong)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(v, 600) {
		t.Fatalf("expected value=600, got=%f", v)
	}

	// SHORT: same move hurts
	v, err = Value(500, 1000, 100, 110, model.SideShort)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(v, 400) {
		t.Fatalf("expected value=400, got=%f", v)
	}
}

func TestValue_InvalidEntry(t *testing.T) {
	if _, err := Value(500, 1000, 0, 110, model.SideLong); err == nil {
		t.Fatalf("expected error for zero entry price")
	}
}

func TestLeverage(t *testing.T) {
	if lv := Leverage(1000, 100); !approx(lv, 10) {
		t.Fatalf("expected leverage=10, got=%f", lv)
	}
	if lv := Leverage(1000, 0); lv != 0 {
		t.Fatalf("expected leverage=0 without collateral, got=%f", lv)
	}
}

func TestLiquidationDistance(t *testing.T) {
	if d := LiquidationDistance(100, 60); !approx(d, 40) {
		t.Fatalf("expected distance=40, got=%f", d)
	}
	if d := LiquidationDistance(60, 100); !approx(d, 40) {
		t.Fatalf("expected distance=40, got=%f", d)
	}
}

func TestTravelPercent_LongAtEntry(t *testing.T) {
	if tp := TravelPercent(model.SideLong, 100, 100, 50); !approx(tp, 0) {
		t.Fatalf("expected 0 at entry, got=%f", tp)
	}
}

func TestTravelPercent_LongAtLiquidation(t *testing.T) {
	if tp := TravelPercent(model.SideLong, 100, 50, 50); !approx(tp, -100) {
		t.Fatalf("expected -100 at liquidation, got=%f", tp)
	}
}

func TestTravelPercent_LongHalfwayToLiquidation(t *testing.T) {
	if tp := TravelPercent(model.SideLong, 100, 75, 50); !approx(tp, -50) {
		t.Fatalf("expected -50 halfway to liquidation, got=%f", tp)
	}
}

func TestTravelPercent_LongBeyondProfitTarget(t *testing.T) {
	// profit target mirrors liquidation distance: entry=100, liq=50 => target=150.
	// current=200 is twice the target distance.
	if tp := TravelPercent(model.SideLong, 100, 200, 50); !approx(tp, 200) {
		t.Fatalf("expected +200 at twice the profit target, got=%f", tp)
	}
}

func TestTravelPercent_ShortSymmetric(t *testing.T) {
	if tp := TravelPercent(model.SideShort, 100, 100, 150); !approx(tp, 0) {
		t.Fatalf("expected 0 at entry, got=%f", tp)
	}
	if tp := TravelPercent(model.SideShort, 100, 150, 150); !approx(tp, -100) {
		t.Fatalf("expected -100 at liquidation, got=%f", tp)
	}
	if tp := TravelPercent(model.SideShort, 100, 50, 150); !approx(tp, 100) {
		t.Fatalf("expected +100 at profit target, got=%f", tp)
	}
}

func TestTravelPercent_InvalidInputsYieldZero(t *testing.T) {
	if tp := TravelPercent(model.SideLong, 100, 90, 100); tp != 0 {
		t.Fatalf("expected 0 when entry==liquidation, got=%f", tp)
	}
	if tp := TravelPercent(model.SideUnknown, 100, 90, 50); tp != 0 {
		t.Fatalf("expected 0 for unknown side, got=%f", tp)
	}
	if tp := TravelPercent(model.SideLong, -1, 90, 50); tp != 0 {
		t.Fatalf("expected 0 for negative entry, got=%f", tp)
	}
}

func TestCompositeRiskIndex_UndefinedInputs(t *testing.T) {
	cases := []model.Position{
		pos(model.SideLong, 100, 90, 100, 1000, 100), // entry == liquidation
		pos(model.SideLong, 0, 90, 50, 1000, 100),    // bad entry
		pos(model.SideLong, 100, 90, 50, 0, 100),     // no size
		pos(model.SideLong, 100, 90, 50, 1000, 0),    // no collateral
	}
	for i, p := range cases {
		if _, ok := CompositeRiskIndex(p); ok {
			t.Fatalf("case %d: expected no result", i)
		}
	}
}

func TestCompositeRiskIndex_FloorApplies(t *testing.T) {
	// At entry the distance factor is zero, so the raw score is zero and the
	// floor must kick in.
	score, ok := CompositeRiskIndex(pos(model.SideLong, 100, 100, 50, 1000, 100))
	if !ok {
		t.Fatalf("expected a result")
	}
	if !approx(score, 5.0) {
		t.Fatalf("expected floored score=5.0, got=%f", score)
	}
}

func TestCompositeRiskIndex_ReproducesDesignWeights(t *testing.T) {
	// entry=100 liq=50 current=75 => distance factor 0.5
	// size=1000 collateral=100 => leverage 10, normalized 0.1
	// collateral ratio 0.1 => risk collateral factor 0.9
	p := pos(model.SideLong, 100, 75, 50, 1000, 100)
	want := math.Pow(0.5, 0.45) * math.Pow(0.1, 0.35) * math.Pow(0.9, 0.20) * 100

	score, ok := CompositeRiskIndex(p)
	if !ok {
		t.Fatalf("expected a result")
	}
	if !approx(score, want) {
		t.Fatalf("expected score=%f, got=%f", want, score)
	}
}

func TestCompositeRiskIndex_RisesTowardLiquidation(t *testing.T) {
	far, _ := CompositeRiskIndex(pos(model.SideLong, 100, 95, 50, 1000, 100))
	near, _ := CompositeRiskIndex(pos(model.SideLong, 100, 55, 50, 1000, 100))
	if near <= far {
		t.Fatalf("expected risk to rise toward liquidation: far=%f near=%f", far, near)
	}
}

func TestPortfolioTotals(t *testing.T) {
	p1 := pos(model.SideLong, 100, 100, 50, 6000, 3000)
	p1.Value = 6000
	p1.Leverage = 2
	p1.TravelPercent = -10
	p1.HeatIndex = 20

	p2 := pos(model.SideShort, 100, 100, 150, 4000, 2000)
	p2.Value = 4000
	p2.Leverage = 4
	p2.TravelPercent = -40
	p2.HeatIndex = 40

	snap := PortfolioTotals([]model.Position{p1, p2})

	if !approx(snap.TotalSize, 10000) {
		t.Fatalf("total size: got=%f", snap.TotalSize)
	}
	if !approx(snap.TotalValue, 10000) {
		t.Fatalf("total value: got=%f", snap.TotalValue)
	}
	if !approx(snap.TotalCollateral, 5000) {
		t.Fatalf("total collateral: got=%f", snap.TotalCollateral)
	}
	// size-weighted: (2*6000 + 4*4000) / 10000 = 2.8
	if !approx(snap.AvgLeverage, 2.8) {
		t.Fatalf("avg leverage: got=%f", snap.AvgLeverage)
	}
	// size-weighted: (-10*6000 + -40*4000) / 10000 = -22
	if !approx(snap.AvgTravelPercent, -22) {
		t.Fatalf("avg travel percent: got=%f", snap.AvgTravelPercent)
	}
	if !approx(snap.AvgHeatIndex, 30) {
		t.Fatalf("avg heat index: got=%f", snap.AvgHeatIndex)
	}
	if !approx(snap.ValueToCollateralRatio(), 2.0) {
		t.Fatalf("value to collateral ratio: got=%f", snap.ValueToCollateralRatio())
	}
}

func TestPortfolioTotals_Empty(t *testing.T) {
	snap := PortfolioTotals(nil)
	if snap.TotalSize != 0 || snap.AvgLeverage != 0 || snap.AvgHeatIndex != 0 {
		t.Fatalf("expected zero snapshot, got=%+v", snap)
	}
}
