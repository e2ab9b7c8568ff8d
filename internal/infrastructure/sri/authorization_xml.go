package sri

import (
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"

	appbilling "github.com/dcevallos/restopos-api/internal/application/billing"
	pkgsri "github.com/dcevallos/restopos-api/pkg/sri"
)

// parseSRIResponse interpreta el XML que el servicio de facturación devuelve
// textual del SRI. Hay dos formas posibles:
//
//   - RespuestaRecepcionComprobante: fase de recepción (RECIBIDA o DEVUELTA)
//   - RespuestaAutorizacionComprobante: fase de autorización
//     (AUTORIZADO, NO AUTORIZADO o EN PROCESO)
//
// Los mensajes se concatenan sin reformular: traen la guía normativa que el
// operador necesita leer tal cual.
func parseSRIResponse(raw []byte) (*appbilling.AuthorizationResult, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("sri: respuesta XML ilegible: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("sri: respuesta XML vacía")
	}

	switch root.Tag {
	case "RespuestaRecepcionComprobante":
		return parseRecepcion(root)
	case "RespuestaAutorizacionComprobante":
		return parseAutorizacion(root)
	default:
		return nil, fmt.Errorf("sri: respuesta XML desconocida <%s>", root.Tag)
	}
}

func parseRecepcion(root *etree.Element) (*appbilling.AuthorizationResult, error) {
	estado := childText(root, "estado")
	if estado == "" {
		return nil, fmt.Errorf("sri: respuesta de recepción sin <estado>")
	}
	result := &appbilling.AuthorizationResult{Estado: estado}

	var msgs []string
	for _, comp := range root.FindElements("./comprobantes/comprobante") {
		if result.AccessKey == "" {
			result.AccessKey = childText(comp, "claveAcceso")
		}
		msgs = append(msgs, collectMessages(comp.FindElement("mensajes"))...)
	}
	result.Messages = strings.Join(msgs, "; ")
	return result, nil
}

func parseAutorizacion(root *etree.Element) (*appbilling.AuthorizationResult, error) {
	result := &appbilling.AuthorizationResult{
		AccessKey: childText(root, "claveAccesoConsultada"),
	}

	aut := root.FindElement("./autorizaciones/autorizacion")
	if aut == nil {
		// El SRI aún no procesó el comprobante: sigue en cola.
		result.Estado = pkgsri.EstadoRecibida
		return result, nil
	}

	result.Estado = childText(aut, "estado")
	if result.Estado == "EN PROCESO" {
		// "EN PROCESO" del SRI equivale a nuestro RECIBIDA: recibido sin veredicto.
		result.Estado = pkgsri.EstadoRecibida
	}
	result.AuthorizationNumber = childText(aut, "numeroAutorizacion")
	if fecha := childText(aut, "fechaAutorizacion"); fecha != "" {
		if t, err := parseFechaAutorizacion(fecha); err == nil {
			result.AuthorizedAt = &t
		}
	}
	result.Messages = strings.Join(collectMessages(aut.FindElement("mensajes")), "; ")
	return result, nil
}

// collectMessages arma "identificador: mensaje (informacionAdicional)" por
// cada <mensaje> del bloque.
func collectMessages(mensajes *etree.Element) []string {
	if mensajes == nil {
		return nil
	}
	var out []string
	for _, m := range mensajes.FindElements("mensaje") {
		texto := childText(m, "mensaje")
		if texto == "" {
			continue
		}
		if id := childText(m, "identificador"); id != "" {
			texto = id + ": " + texto
		}
		if extra := childText(m, "informacionAdicional"); extra != "" {
			texto += " (" + extra + ")"
		}
		out = append(out, texto)
	}
	return out
}

func childText(e *etree.Element, tag string) string {
	child := e.FindElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

// parseFechaAutorizacion acepta los dos formatos de fecha que el SRI usa en
// la práctica: RFC 3339 con zona y la variante sin zona.
func parseFechaAutorizacion(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "02/01/2006 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("sri: fecha de autorización ilegible %q", s)
}
