package models

import "time"

// Vec3 is one three-axis reading.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// RawSample is what a motion source delivers: a host-clock timestamp plus
// accelerometer and gyroscope readings.
type RawSample struct {
	Timestamp time.Time
	Accel     Vec3
	Gyro      Vec3
}

// MotionSample is a buffered sample stamped relative to its batching window.
type MotionSample struct {
	TimeOffsetNanos uint32
	Accel           Vec3
	Gyro            Vec3
}

// LogRow is one data row of a motion log.
type LogRow struct {
	Timestamp       float64 // absolute seconds
	TimeOffsetNanos uint32
	Accel           Vec3
	Gyro            Vec3
	Label           *bool
}
