package domain

import (
	"encoding/json"
	"strings"
)

// Property is the rented / metered unit an invoice is issued for.
type Property struct {
	ID                      string     `json:"_id"`
	PropertyName            string     `json:"propertyName,omitempty"`
	PlotNumber              FlexString `json:"plotNumber,omitempty"`
	SrNo                    FlexString `json:"srNo,omitempty"`
	Address                 string     `json:"address,omitempty"`
	FullAddress             string     `json:"fullAddress,omitempty"`
	Street                  string     `json:"street,omitempty"`
	OwnerName               string     `json:"ownerName,omitempty"`
	TenantName              string     `json:"tenantName,omitempty"`
	ResidentID              FlexString `json:"residentId,omitempty"`
	Resident                *Resident  `json:"resident,omitempty"`
	Sector                  string     `json:"sector,omitempty"`
	Floor                   string     `json:"floor,omitempty"`
	AreaValue               FlexString `json:"areaValue,omitempty"`
	AreaUnit                string     `json:"areaUnit,omitempty"`
	ElectricityWaterMeterNo FlexString `json:"electricityWaterMeterNo,omitempty"`
	Meters                  []Meter    `json:"meters,omitempty"`
}

// Resident is the populated resident reference of a property.
type Resident struct {
	ResidentID FlexString `json:"residentId,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// Meter is one electricity meter installed at a property.
type Meter struct {
	MeterNo  FlexString `json:"meterNo"`
	Floor    string     `json:"floor,omitempty"`
	IsActive *bool      `json:"isActive,omitempty"`
}

// UnmarshalJSON accepts either a populated property object or a bare id, since
// the backend only populates the reference on some endpoints.
func (p *Property) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*p = Property{ID: id}
		return nil
	}
	type plain Property
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Property(v)
	return nil
}

// HasSize reports whether area data is present.
func (p *Property) HasSize() bool {
	return p != nil && (p.AreaValue != "" || p.AreaUnit != "")
}

// Merge fills empty fields of p from other. Used when the invoice carries a
// partial property and the full record was fetched separately.
func (p *Property) Merge(other *Property) {
	if other == nil {
		return
	}
	set := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	setFlex := func(dst *FlexString, src FlexString) {
		if *dst == "" {
			*dst = src
		}
	}
	set(&p.ID, other.ID)
	set(&p.PropertyName, other.PropertyName)
	setFlex(&p.PlotNumber, other.PlotNumber)
	setFlex(&p.SrNo, other.SrNo)
	set(&p.Address, other.Address)
	set(&p.FullAddress, other.FullAddress)
	set(&p.Street, other.Street)
	set(&p.OwnerName, other.OwnerName)
	set(&p.TenantName, other.TenantName)
	setFlex(&p.ResidentID, other.ResidentID)
	set(&p.Sector, other.Sector)
	set(&p.Floor, other.Floor)
	setFlex(&p.AreaValue, other.AreaValue)
	set(&p.AreaUnit, other.AreaUnit)
	setFlex(&p.ElectricityWaterMeterNo, other.ElectricityWaterMeterNo)
	if p.Resident == nil {
		p.Resident = other.Resident
	}
	if len(p.Meters) == 0 {
		p.Meters = other.Meters
	}
}

// ResidentCode returns the resident id from the populated resident or the
// property itself.
func (p *Property) ResidentCode() string {
	if p.Resident != nil && p.Resident.ResidentID != "" {
		return string(p.Resident.ResidentID)
	}
	return string(p.ResidentID)
}

// Size renders "<areaValue> <areaUnit>", or empty when no area is recorded.
func (p *Property) Size() string {
	v := strings.TrimSpace(string(p.AreaValue))
	if v == "" {
		return ""
	}
	u := strings.TrimSpace(p.AreaUnit)
	if u == "" {
		return v
	}
	return v + " " + u
}
