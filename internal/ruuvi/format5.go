package ruuvi

import "fmt"

func decodeFormat5(payload []byte) (*Measurement, error) {
	if len(payload) < format5MinLen {
		return nil, ErrTooShort
	}

	temp := float64(beInt16(payload[1:3])) * 0.005
	humidity := float64(beUint16(payload[3:5])) * 0.0025

	pressureRaw := beUint16(payload[5:7])
	pressure := (float64(pressureRaw) + 50000) / 100

	accelX := float64(beInt16(payload[7:9])) / 1000
	accelY := float64(beInt16(payload[9:11])) / 1000
	accelZ := float64(beInt16(payload[11:13])) / 1000

	powerInfo := beUint16(payload[13:15])
	battery := (float64(powerInfo>>5) + 1600) / 1000
	txPower := int(powerInfo&0x1F)*2 - 40

	movement := payload[15]
	sequence := beUint16(payload[16:18])
	mac := formatMAC(payload[18:24])

	m := &Measurement{
		FormatTag:     Format5,
		MACAddress:    mac,
		TemperatureC:  f64(temp),
		HumidityPct:   f64(humidity),
		PressureHPa:   f64(pressure),
		AccelXG:       f64(accelX),
		AccelYG:       f64(accelY),
		AccelZG:       f64(accelZ),
		BatteryV:      f64(battery),
		TxPowerDBm:    i(txPower),
		MovementCount: u8(movement),
		Sequence:      u16(sequence),
	}
	return stamp(m), nil
}

func formatMAC(b []byte) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[0], b[1], b[2], b[3], b[4], b[5])
}
