package telemetry

import "strconv"

var onOff = map[bool]string{true: "on", false: "off"}

// Fields maps an update onto the hash fields stored under the key.
// Temperatures and speeds are kept in the units the ECU reports.
func Fields(u *Update) map[string]interface{} {
	s := u.Snapshot

	fields := map[string]interface{}{
		"timestamp":        u.Timestamp.UnixMilli(),
		"result":           u.Result.String(),
		"rpm":              s.EngineSpeedRPM,
		"road-speed:mph":   s.RoadSpeedMPH,
		"coolant:temp-f":   s.CoolantTempF,
		"fuel:temp-f":      s.FuelTempF,
		"throttle":         strconv.FormatFloat(s.ThrottlePos, 'f', 1, 64),
		"maf":              strconv.FormatFloat(s.MAFReading, 'f', 1, 64),
		"idle-bypass":      strconv.FormatFloat(s.IdleBypassPos, 'f', 1, 64),
		"idle-target":      s.TargetIdleRPM,
		"idle-mode":        onOff[s.IdleMode],
		"gear":             s.Gear.String(),
		"main-voltage":     strconv.FormatFloat(s.MainVoltage, 'f', 2, 64),
		"lambda-trim:odd":  s.LambdaTrimOdd,
		"lambda-trim:even": s.LambdaTrimEven,
		"injector:pw-ms":   strconv.FormatFloat(s.InjectorPulseWidthMs, 'f', 2, 64),
		"injector:duty":    strconv.FormatFloat(s.InjectorDutyCycle(), 'f', 1, 64),
		"fuel-pump":        onOff[s.FuelPumpRelayOn],
		"mil":              onOff[s.MILOn],
	}

	if s.FuelMapIndexRead {
		fields["fuel-map"] = s.FuelMapIndex
	}
	if limit, ok := s.RPMLimit.Get(); ok {
		fields["rpm-limit"] = limit
	}
	if tune, ok := s.Tune.Get(); ok {
		fields["tune"] = strconv.FormatUint(uint64(tune.Tune), 16)
	}

	return fields
}
