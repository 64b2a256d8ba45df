package repository

import "testing"

func TestParseRef(t *testing.T) {
	cases := []struct {
		ref    string
		symbol string
		tf     Timeframe
	}{
		{"BTC:1h", "BTC", TF1h},
		{"ETH:5m", "ETH", TF5m},
		{"BTC", "BTC", TF1d},
		{"BTC:bogus", "BTC", TF1d},
		{"BINANCE:BTCUSDT:1m", "BINANCE:BTCUSDT", TF1m},
	}
	for _, c := range cases {
		symbol, tf := ParseRef(c.ref)
		if symbol != c.symbol || tf != c.tf {
			t.Fatalf("ParseRef(%q) = (%q, %s), want (%q, %s)", c.ref, symbol, tf, c.symbol, c.tf)
		}
	}
}

func TestNormalizeTimeframe(t *testing.T) {
	if NormalizeTimeframe("") != TF1d {
		t.Fatalf("empty timeframe should normalize to default")
	}
	if NormalizeTimeframe("1h") != TF1h {
		t.Fatalf("valid timeframe should pass through")
	}
	if NormalizeTimeframe("7w") != TF1d {
		t.Fatalf("unknown timeframe should fall back to default")
	}
}
