package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/rdapkit/rdap"
)

// render prints res per -f/--format and --json-source.
func render(res *rdap.RdapQueryResult) {
	switch flagFormat {
	case "json":
		printJSON(jsonSource(res), false)
	case "json-pretty":
		printJSON(jsonSource(res), true)
	default:
		renderText(res)
	}
}

func jsonSource(res *rdap.RdapQueryResult) rdap.RdapObject {
	if flagJSONSource == "registrar" && res.Registrar != nil {
		return res.Registrar
	}
	return res.Registry
}

func printJSON(obj rdap.RdapObject, pretty bool) {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(obj, "", "  ")
	} else {
		b, err = json.Marshal(obj)
	}
	if err != nil {
		fmt.Println("{}")
		return
	}
	fmt.Println(string(b))
}

func renderText(res *rdap.RdapQueryResult) {
	pterm.DefaultSection.Println(strings.ToUpper(res.Query.Raw))

	renderObject("registry", res.Registry, res.RegistryURL)
	if res.Registrar != nil {
		fmt.Println()
		renderObject("registrar", res.Registrar, res.RegistrarURL)
	}

	if res.AbuseContact != "" || res.AdminContact != "" || res.TechContact != "" {
		fmt.Println()
		rows := [][]string{{"Role", "Contact"}}
		if res.AbuseContact != "" {
			rows = append(rows, []string{"abuse", res.AbuseContact})
		}
		if res.AdminContact != "" {
			rows = append(rows, []string{"administrative", res.AdminContact})
		}
		if res.TechContact != "" {
			rows = append(rows, []string{"technical", res.TechContact})
		}
		pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	}
}

var (
	styleHeading = pterm.NewStyle(pterm.FgCyan, pterm.Bold)
	styleDim     = pterm.NewStyle(pterm.FgGray)
)

func renderObject(label string, obj rdap.RdapObject, url string) {
	fmt.Printf("%s", styleHeading.Sprintf("[%s] %s", label, obj.GetObjectClassName()))
	if url != "" {
		fmt.Printf("  %s\n", styleDim.Sprintf("(%s)", url))
	} else {
		fmt.Println()
	}

	switch v := obj.(type) {
	case *rdap.Domain:
		renderCommon(v.Handle, v.Status, v.Entities, v.Events)
		field("ldhName", v.LDHName)
		field("unicodeName", v.UnicodeName)
		if v.SecureDNS != nil {
			field("dnssec", fmt.Sprintf("zoneSigned=%v delegationSigned=%v", v.SecureDNS.ZoneSigned, v.SecureDNS.DelegationSigned))
		}
		for _, ns := range v.Nameservers {
			field("nameserver", ns.LDHName)
		}
	case *rdap.Entity:
		renderCommon(v.Handle, v.Status, v.Entities, v.Events)
		if len(v.Roles) > 0 {
			field("roles", strings.Join(v.Roles, ", "))
		}
		if vc, ok := rdap.ParseVCard(v.VCardArray); ok {
			if fn := vc.FN(); fn != "" {
				field("name", fn)
			}
			if org := vc.Org(); org != "" {
				field("org", org)
			}
			for _, e := range vc.Emails() {
				field("email", e)
			}
			for _, t := range vc.Tels() {
				field("tel", t)
			}
		}
	case *rdap.Nameserver:
		renderCommon(v.Handle, v.Status, v.Entities, v.Events)
		field("ldhName", v.LDHName)
		if v.IPAddresses != nil {
			if len(v.IPAddresses.V4) > 0 {
				field("v4", strings.Join(v.IPAddresses.V4, ", "))
			}
			if len(v.IPAddresses.V6) > 0 {
				field("v6", strings.Join(v.IPAddresses.V6, ", "))
			}
		}
	case *rdap.IPNetwork:
		renderCommon(v.Handle, v.Status, v.Entities, v.Events)
		field("range", fmt.Sprintf("%s - %s", v.StartAddress, v.EndAddress))
		field("name", v.Name)
		field("country", v.Country)
		field("type", v.Type)
	case *rdap.Autnum:
		renderCommon(v.Handle, v.Status, v.Entities, v.Events)
		field("range", fmt.Sprintf("AS%d - AS%d", v.StartAutnum, v.EndAutnum))
		field("name", v.Name)
		field("country", v.Country)
		field("type", v.Type)
	case rdap.Unknown:
		pterm.Warning.Println("server returned an unrecognized object class; showing raw JSON")
		printJSON(v, true)
	default:
		printJSON(obj, true)
	}
}

func renderCommon(handle string, status []string, entities []rdap.Entity, events []rdap.Event) {
	field("handle", handle)
	if len(status) > 0 {
		field("status", strings.Join(status, ", "))
	}
	for _, e := range entities {
		field("entity", fmt.Sprintf("%s (%s)", e.Handle, strings.Join(e.Roles, ",")))
	}
	for _, e := range events {
		field(e.EventAction, humanizeEventDate(e.EventDate))
	}
}

func field(name, value string) {
	if value == "" {
		return
	}
	fmt.Printf("  %-14s %s\n", name+":", value)
}

func humanizeEventDate(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%s (%s)", s, humanize.Time(t))
}
