package models

import (
	"encoding/json"
	"time"
)

// Reading 单条传感器采样（不可变）
type Reading struct {
	DeviceID    string    `json:"device_id"`
	HR          int       `json:"hr"`
	SpO2        int       `json:"spo2"`
	PostureCode int       `json:"posture_code"`
	AreaCode    int       `json:"area_code"`
	StepCount   int       `json:"step_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// 姿态编码（与设备端固件保持一致）
const (
	PostureUnknown  = 0
	PostureSitting  = 1
	PostureStanding = 2
	PostureLying    = 3
	PostureFalling  = 5
)

// 区域编码
const (
	AreaCorridor = 3
	AreaBathroom = 6
	AreaBedroom  = 7
)

// PostureMap 姿态编码 → 显示名称
var PostureMap = map[int]string{
	0:  "Unknown",
	1:  "Sitting",
	2:  "Standing",
	3:  "Lying Down",
	4:  "Lying on Right Side",
	5:  "Falling",
	6:  "Prone",
	7:  "Lying on Left Side",
	8:  "Walking",
	10: "Unstable Temp",
	11: "Upright Torso",
}

// AreaMap 区域编码 → 显示名称
var AreaMap = map[int]string{
	1: "Unknown Area",
	2: "Laboratory",
	3: "Corridor",
	4: "Dining Table",
	5: "Living Room",
	6: "Bathroom",
	7: "Bedroom",
	8: "Laboratory",
}

// PostureLabel 获取姿态显示名称（未知编码返回 "Unknown"）
func PostureLabel(code int) string {
	if label, ok := PostureMap[code]; ok {
		return label
	}
	return "Unknown"
}

// AreaLabel 获取区域显示名称（未知编码返回 "Unknown Area"）
func AreaLabel(code int) string {
	if label, ok := AreaMap[code]; ok {
		return label
	}
	return "Unknown Area"
}

// PostureLabel 当前读数的姿态显示名称
func (r Reading) PostureLabel() string {
	return PostureLabel(r.PostureCode)
}

// AreaLabel 当前读数的区域显示名称
func (r Reading) AreaLabel() string {
	return AreaLabel(r.AreaCode)
}

// rawReading 上游数据源的原始字段（兼容多种字段拼写）
type rawReading struct {
	DeviceID    string          `json:"device_id"`
	DeviceIDAlt string          `json:"device_ID"`
	HR          json.RawMessage `json:"HR"`
	BloodOxygen json.RawMessage `json:"Blood_oxygen"`
	Posture     json.RawMessage `json:"Posture_state"`
	Area        json.RawMessage `json:"Area"`
	Lokasi      json.RawMessage `json:"Lokasi"`
	Step        json.RawMessage `json:"Step"`
	Timestamp   *int64          `json:"timestamp"`
}

// ParseReading 解析上游原始数据为 Reading
// 缺失或非数值字段按 0 处理；Area 缺失时回退到 Lokasi 字段
func ParseReading(payload []byte) (Reading, error) {
	var raw rawReading
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Reading{}, err
	}

	deviceID := raw.DeviceID
	if deviceID == "" {
		deviceID = raw.DeviceIDAlt
	}

	area := asInt(raw.Area)
	if area == 0 {
		area = asInt(raw.Lokasi)
	}

	ts := time.Now()
	if raw.Timestamp != nil && *raw.Timestamp > 0 {
		ts = time.Unix(*raw.Timestamp, 0)
	}

	return Reading{
		DeviceID:    deviceID,
		HR:          asInt(raw.HR),
		SpO2:        asInt(raw.BloodOxygen),
		PostureCode: asInt(raw.Posture),
		AreaCode:    area,
		StepCount:   asInt(raw.Step),
		Timestamp:   ts,
	}, nil
}

// asInt 宽容地把 JSON 数值/数字字符串转换为 int，其它情况返回 0
func asInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var fs float64
		if err := json.Unmarshal([]byte(s), &fs); err == nil {
			return int(fs)
		}
	}
	return 0
}
