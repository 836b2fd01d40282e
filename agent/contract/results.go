package contract

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ToolType string

const (
	ToolTypeWeather          ToolType = "weather"
	ToolTypeLogo             ToolType = "finance_logo"
	ToolTypeSaleOrderList    ToolType = "sale_order_list"
	ToolTypeSaleOrderCreated ToolType = "sale_order_created"
	ToolTypeUserList         ToolType = "user_list"
	ToolTypeError            ToolType = "error"
)

// ToolResult is the closed set of tool outcomes. Only the variants in this
// package implement it.
type ToolResult interface {
	ToolType() ToolType
	isToolResult()
}

type WeatherResult struct {
	Location     string  `json:"location"`
	Region       string  `json:"region,omitempty"`
	Country      string  `json:"country,omitempty"`
	Condition    string  `json:"condition"`
	TemperatureC float64 `json:"temperature_c"`
	TemperatureF float64 `json:"temperature_f"`
	Humidity     int     `json:"humidity"`
	WindKph      float64 `json:"wind_kph"`
}

type LogoResult struct {
	Stock   string  `json:"stock"`
	LogoURL *string `json:"logo_url"`
}

type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type SaleOrder struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	State       string  `json:"state,omitempty"`
	DateOrder   string  `json:"date_order,omitempty"`
	AmountTotal float64 `json:"amount_total"`
	Company     *Ref    `json:"company,omitempty"`
	User        *Ref    `json:"user,omitempty"`
}

type SaleOrderListResult struct {
	SaleOrders []SaleOrder `json:"sale_orders"`
}

type SaleOrderCreatedResult struct {
	OrderID int64 `json:"order_id"`
}

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Login string `json:"login,omitempty"`
}

type UserListResult struct {
	Users []User `json:"users"`
}

type ErrorResult struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (ErrorResult) ToolType() ToolType            { return ToolTypeError }
func (WeatherResult) ToolType() ToolType          { return ToolTypeWeather }
func (LogoResult) ToolType() ToolType             { return ToolTypeLogo }
func (SaleOrderListResult) ToolType() ToolType    { return ToolTypeSaleOrderList }
func (SaleOrderCreatedResult) ToolType() ToolType { return ToolTypeSaleOrderCreated }
func (UserListResult) ToolType() ToolType         { return ToolTypeUserList }

func (ErrorResult) isToolResult()            {}
func (WeatherResult) isToolResult()          {}
func (LogoResult) isToolResult()             {}
func (SaleOrderListResult) isToolResult()    {}
func (SaleOrderCreatedResult) isToolResult() {}
func (UserListResult) isToolResult()         {}

func (e ErrorResult) Error() string {
	return fmt.Sprintf("%s (code: %d)", e.Message, e.Code)
}

func (r WeatherResult) MarshalJSON() ([]byte, error) {
	type alias WeatherResult
	return json.Marshal(struct {
		ToolType ToolType `json:"tool_type"`
		alias
	}{r.ToolType(), alias(r)})
}

func (r LogoResult) MarshalJSON() ([]byte, error) {
	type alias LogoResult
	return json.Marshal(struct {
		ToolType ToolType `json:"tool_type"`
		alias
	}{r.ToolType(), alias(r)})
}

func (r SaleOrderListResult) MarshalJSON() ([]byte, error) {
	type alias SaleOrderListResult
	return json.Marshal(struct {
		ToolType ToolType `json:"tool_type"`
		alias
	}{r.ToolType(), alias(r)})
}

func (r SaleOrderCreatedResult) MarshalJSON() ([]byte, error) {
	type alias SaleOrderCreatedResult
	return json.Marshal(struct {
		ToolType ToolType `json:"tool_type"`
		alias
	}{r.ToolType(), alias(r)})
}

func (r UserListResult) MarshalJSON() ([]byte, error) {
	type alias UserListResult
	return json.Marshal(struct {
		ToolType ToolType `json:"tool_type"`
		alias
	}{r.ToolType(), alias(r)})
}

func (r ErrorResult) MarshalJSON() ([]byte, error) {
	type alias ErrorResult
	return json.Marshal(struct {
		ToolType ToolType `json:"tool_type"`
		alias
	}{r.ToolType(), alias(r)})
}

// Render produces the human-readable line for a single result.
func Render(r ToolResult) string {
	switch v := r.(type) {
	case WeatherResult:
		return fmt.Sprintf("Weather in %s: %s, Temperature: %.1f°C", v.Location, v.Condition, v.TemperatureC)
	case LogoResult:
		if v.LogoURL == nil || *v.LogoURL == "" {
			return "No logo found for the specified stock."
		}
		return "Logo URL: " + *v.LogoURL
	case SaleOrderListResult:
		if len(v.SaleOrders) == 0 {
			return "No sale orders found."
		}
		names := make([]string, 0, len(v.SaleOrders))
		for _, o := range v.SaleOrders {
			names = append(names, o.Name)
		}
		return fmt.Sprintf("Found %d sale orders: %s", len(v.SaleOrders), strings.Join(names, ", "))
	case SaleOrderCreatedResult:
		return fmt.Sprintf("Created sale order %d.", v.OrderID)
	case UserListResult:
		names := make([]string, 0, len(v.Users))
		for _, u := range v.Users {
			names = append(names, u.Name)
		}
		return fmt.Sprintf("Found %d users: %s", len(v.Users), strings.Join(names, ", "))
	case ErrorResult:
		return fmt.Sprintf("Error: %s (Code: %d)", v.Message, v.Code)
	case nil:
		return ""
	default:
		// Pointer variants also satisfy ToolResult.
		return Render(ErrorResult{Code: CodeInternal, Message: fmt.Sprintf("unsupported tool result %T", r)})
	}
}

// RenderAll renders every result independently and joins them line by line.
func RenderAll(results []ToolResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		if line := Render(r); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
