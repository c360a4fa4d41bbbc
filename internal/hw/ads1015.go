package hw

import (
	"fmt"

	"motorctl/internal/i2c"
)

// ADS1015 register map.
const (
	regConversion = 0x00
	regConfig     = 0x01

	// AIN0 single-ended, +/-4.096V, continuous conversion, 3300 SPS,
	// comparator disabled.
	cfgMuxAIN0     = 0x4 << 12
	cfgPGA4V096    = 0x1 << 9
	cfgContinuous  = 0x0 << 8
	cfgRate3300SPS = 0x6 << 5
	cfgCompDisable = 0x3

	ads1015Config = cfgMuxAIN0 | cfgPGA4V096 | cfgContinuous | cfgRate3300SPS | cfgCompDisable
)

type regIO16 interface {
	ReadRegU16(reg byte) (uint16, error)
	WriteRegU16(reg byte, value uint16) error
}

// ADS1015 is a 12-bit I2C ADC sampling the current sense channel.
type ADS1015 struct {
	dev regIO16
}

func NewADS1015(dev *i2c.Dev) (*ADS1015, error) {
	if dev == nil {
		return nil, fmt.Errorf("ads1015: dev is nil")
	}
	return newADS1015WithIO(dev)
}

func newADS1015WithIO(dev regIO16) (*ADS1015, error) {
	if dev == nil {
		return nil, fmt.Errorf("ads1015: dev is nil")
	}
	if err := dev.WriteRegU16(regConfig, ads1015Config); err != nil {
		return nil, fmt.Errorf("ads1015: config write failed: %w", err)
	}
	got, err := dev.ReadRegU16(regConfig)
	if err != nil {
		return nil, fmt.Errorf("ads1015: config read failed: %w", err)
	}
	// The OS bit reads back as conversion status; ignore it.
	if got&0x7FFF != ads1015Config&0x7FFF {
		return nil, fmt.Errorf("ads1015: config=0x%04X want 0x%04X", got, ads1015Config)
	}
	return &ADS1015{dev: dev}, nil
}

// ReadADC returns the latest 12-bit conversion. Negative readings clamp to 0.
func (a *ADS1015) ReadADC() (uint16, error) {
	v, err := a.dev.ReadRegU16(regConversion)
	if err != nil {
		return 0, fmt.Errorf("ads1015: conversion read failed: %w", err)
	}
	if v&0x8000 != 0 {
		return 0, nil
	}
	return v >> 4, nil
}
