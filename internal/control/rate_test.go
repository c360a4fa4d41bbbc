package control

import "testing"

func TestLoopPeriodFor(t *testing.T) {
	cases := []struct {
		setpoint uint32
		want     int
	}{
		{setpoint: 300, want: 30},
		{setpoint: 251, want: 30},
		{setpoint: 250, want: 40},
		{setpoint: 150, want: 40},
		{setpoint: 101, want: 40},
		{setpoint: 100, want: 100},
		{setpoint: 75, want: 100},
		{setpoint: 51, want: 100},
		{setpoint: 50, want: 200},
		{setpoint: 10, want: 200},
		{setpoint: 0, want: 200},
		{setpoint: 9999, want: 30},
	}
	for _, tc := range cases {
		if got := LoopPeriodFor(tc.setpoint); got != tc.want {
			t.Fatalf("LoopPeriodFor(%d)=%d want %d", tc.setpoint, got, tc.want)
		}
	}
}
