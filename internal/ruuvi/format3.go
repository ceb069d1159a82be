package ruuvi

func decodeFormat3(payload []byte) (*Measurement, error) {
	if len(payload) < format3MinLen {
		return nil, ErrTooShort
	}

	humidity := float64(payload[1]) * 0.5

	tempInt := int8(payload[2])
	tempFrac := float64(payload[3])
	temp := float64(tempInt) + tempFrac/100

	pressureRaw := beUint16(payload[4:6])
	pressure := (float64(pressureRaw) + 50000) / 100

	accelX := float64(beInt16(payload[6:8])) / 1000
	accelY := float64(beInt16(payload[8:10])) / 1000
	accelZ := float64(beInt16(payload[10:12])) / 1000

	batteryMV := beUint16(payload[12:14])
	battery := float64(batteryMV) / 1000

	m := &Measurement{
		FormatTag:    Format3,
		TemperatureC: f64(temp),
		HumidityPct:  f64(humidity),
		PressureHPa:  f64(pressure),
		AccelXG:      f64(accelX),
		AccelYG:      f64(accelY),
		AccelZG:      f64(accelZ),
		BatteryV:     f64(battery),
	}
	return stamp(m), nil
}
