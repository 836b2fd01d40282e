package tool

import (
	"github.com/cloudwego/eino/schema"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
)

var catalog = []*schema.ToolInfo{
	{
		Name: contract.ToolFetchWeather,
		Desc: "Fetch the current weather for a city.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"city": {Type: schema.String, Desc: "City name, e.g. Karachi", Required: true},
		}),
	},
	{
		Name: contract.ToolFetchFinanceLogo,
		Desc: "Fetch the logo URL of a listed company by its stock symbol.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"stock": {Type: schema.String, Desc: "Stock ticker symbol, e.g. AAPL", Required: true},
		}),
	},
	{
		Name: contract.ToolFetchSaleOrdersByUser,
		Desc: "List the ERP sale orders of the requesting user. The user is taken from the session; takes no arguments.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	},
	{
		Name: contract.ToolCreateSaleOrder,
		Desc: "Create an ERP sale order for a customer.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"partner_id": {Type: schema.Integer, Desc: "Customer (partner) id", Required: true},
			"order_lines": {
				Type:     schema.Array,
				Desc:     "Products to order",
				Required: true,
				ElemInfo: &schema.ParameterInfo{
					Type: schema.Object,
					SubParams: map[string]*schema.ParameterInfo{
						"product_id": {Type: schema.Integer, Desc: "Product id", Required: true},
						"quantity":   {Type: schema.Number, Desc: "Quantity to order", Required: true},
					},
				},
			},
		}),
	},
	{
		Name: contract.ToolFetchUserByLogin,
		Desc: "Look up ERP users by their login.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"login": {Type: schema.String, Desc: "User login, usually an email", Required: true},
		}),
	},
}

// Infos returns the schema of every tool the gateway can run.
func Infos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, len(catalog))
	copy(out, catalog)
	return out
}

func Names() []string {
	out := make([]string, 0, len(catalog))
	for _, info := range catalog {
		out = append(out, info.Name)
	}
	return out
}
