// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package config reads a Space's Settings from a yaml document, the way
// the engine reads shader and asset descriptions: string-keyed fields
// mapped through small lookup tables so the file stays human-editable.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/solidphys/phys2d/math/vec2"
	"github.com/solidphys/phys2d/physics"
)

// correctionModes maps the yaml's position-correction string to its
// physics.CorrectionMode value.
var correctionModes = map[string]physics.CorrectionMode{
	"baumgarte": physics.Baumgarte,
	"ngs":       physics.NGS,
}

// mixRules maps the yaml's mix-rule strings to physics.MixRule values.
var mixRules = map[string]physics.MixRule{
	"avg":  physics.MixAvg,
	"mul":  physics.MixMul,
	"sqrt": physics.MixSqrt,
	"min":  physics.MixMin,
	"max":  physics.MixMax,
}

// settingsConfig is the on-disk shape of a Settings document. Fields left
// unset in the yaml keep physics.NewSettings()'s default, so a document
// only needs to mention what it overrides.
type settingsConfig struct {
	Baumgarte                 *float64 `yaml:"baumgarte"`
	PenetrationSlop           *float64 `yaml:"penetration_slop"`
	ContactPositionCorrection string   `yaml:"contact_position_correction"`
	VelocityIterations        *int     `yaml:"velocity_iterations"`
	PositionIterations        *int     `yaml:"position_iterations"`
	Substeps                  *int     `yaml:"substeps"`
	LinearDamping             *float64 `yaml:"linear_damping"`
	AngularDamping            *float64 `yaml:"angular_damping"`
	Warmstarting              *bool    `yaml:"warmstarting"`
	RestitutionMix            string   `yaml:"restitution_mix"`
	FrictionMix               string   `yaml:"friction_mix"`
	Gravity                   *struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
	} `yaml:"gravity"`
	WakeEnergyThreshold *float64 `yaml:"wake_energy_threshold"`
}

// Settings parses a yaml document into a physics.Settings, starting from
// physics.NewSettings()'s defaults and overriding only the fields present
// in data.
func Settings(data []byte) (physics.Settings, error) {
	settings := physics.NewSettings()

	var cfg settingsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return settings, fmt.Errorf("config: yaml %w", err)
	}

	if cfg.Baumgarte != nil {
		settings.Baumgarte = *cfg.Baumgarte
	}
	if cfg.PenetrationSlop != nil {
		settings.PenetrationSlop = *cfg.PenetrationSlop
	}
	if cfg.ContactPositionCorrection != "" {
		mode, ok := correctionModes[cfg.ContactPositionCorrection]
		if !ok {
			return settings, fmt.Errorf("config: unsupported contact_position_correction %q", cfg.ContactPositionCorrection)
		}
		settings.ContactPositionCorrection = mode
	}
	if cfg.VelocityIterations != nil {
		settings.VelocityIterations = *cfg.VelocityIterations
	}
	if cfg.PositionIterations != nil {
		settings.PositionIterations = *cfg.PositionIterations
	}
	if cfg.Substeps != nil {
		settings.Substeps = *cfg.Substeps
	}
	if cfg.LinearDamping != nil {
		settings.LinearDamping = *cfg.LinearDamping
	}
	if cfg.AngularDamping != nil {
		settings.AngularDamping = *cfg.AngularDamping
	}
	if cfg.Warmstarting != nil {
		settings.Warmstarting = *cfg.Warmstarting
	}
	if cfg.RestitutionMix != "" {
		mix, ok := mixRules[cfg.RestitutionMix]
		if !ok {
			return settings, fmt.Errorf("config: unsupported restitution_mix %q", cfg.RestitutionMix)
		}
		settings.RestitutionMix = mix
	}
	if cfg.FrictionMix != "" {
		mix, ok := mixRules[cfg.FrictionMix]
		if !ok {
			return settings, fmt.Errorf("config: unsupported friction_mix %q", cfg.FrictionMix)
		}
		settings.FrictionMix = mix
	}
	if cfg.Gravity != nil {
		settings.Gravity = vec2.V{X: cfg.Gravity.X, Y: cfg.Gravity.Y}
	}
	if cfg.WakeEnergyThreshold != nil {
		settings.WakeEnergyThreshold = *cfg.WakeEnergyThreshold
	}

	return settings, nil
}
