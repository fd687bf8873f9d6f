package rdf

// Well-known namespaces.
const (
	RDFNS     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNS    = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNS     = "http://www.w3.org/2002/07/owl#"
	XSDNS     = "http://www.w3.org/2001/XMLSchema#"
	SHNS      = "http://www.w3.org/ns/shacl#"
	SKOSNS    = "http://www.w3.org/2004/02/skos/core#"
	DCTermsNS = "http://purl.org/dc/terms/"
)

// DefaultPrefixes returns the prefixes bound on every graph produced by the
// converters.
func DefaultPrefixes() map[string]string {
	return map[string]string{
		"sh":      SHNS,
		"rdf":     RDFNS,
		"rdfs":    RDFSNS,
		"owl":     OWLNS,
		"xsd":     XSDNS,
		"skos":    SKOSNS,
		"dcterms": DCTermsNS,
	}
}

// RDF terms.
var (
	RDFType      = IRI{Value: RDFNS + "type"}
	RDFFirst     = IRI{Value: RDFNS + "first"}
	RDFRest      = IRI{Value: RDFNS + "rest"}
	RDFNil       = IRI{Value: RDFNS + "nil"}
	RDFLangStr   = IRI{Value: RDFNS + "langString"}
	RDFProperty  = IRI{Value: RDFNS + "Property"}
	RDFXMLLiteral = IRI{Value: RDFNS + "XMLLiteral"}
)

// RDFS terms.
var (
	RDFSClass         = IRI{Value: RDFSNS + "Class"}
	RDFSLabel         = IRI{Value: RDFSNS + "label"}
	RDFSComment       = IRI{Value: RDFSNS + "comment"}
	RDFSDomain        = IRI{Value: RDFSNS + "domain"}
	RDFSRange         = IRI{Value: RDFSNS + "range"}
	RDFSSubClassOf    = IRI{Value: RDFSNS + "subClassOf"}
	RDFSSubPropertyOf = IRI{Value: RDFSNS + "subPropertyOf"}
)

// OWL terms.
var (
	OWLClass              = IRI{Value: OWLNS + "Class"}
	OWLObjectProperty     = IRI{Value: OWLNS + "ObjectProperty"}
	OWLDatatypeProperty   = IRI{Value: OWLNS + "DatatypeProperty"}
	OWLEquivalentClass    = IRI{Value: OWLNS + "equivalentClass"}
	OWLInverseOf          = IRI{Value: OWLNS + "inverseOf"}
	OWLSymmetricProperty  = IRI{Value: OWLNS + "SymmetricProperty"}
	OWLTransitiveProperty = IRI{Value: OWLNS + "TransitiveProperty"}
	OWLEquivalentProperty = IRI{Value: OWLNS + "equivalentProperty"}
)

// XSD datatypes.
var (
	XSDString  = IRI{Value: XSDNS + "string"}
	XSDInteger = IRI{Value: XSDNS + "integer"}
	XSDDecimal = IRI{Value: XSDNS + "decimal"}
	XSDDouble  = IRI{Value: XSDNS + "double"}
	XSDFloat   = IRI{Value: XSDNS + "float"}
	XSDBoolean = IRI{Value: XSDNS + "boolean"}
	XSDDate    = IRI{Value: XSDNS + "date"}
	XSDInt     = IRI{Value: XSDNS + "int"}
	XSDLong    = IRI{Value: XSDNS + "long"}
)

// SKOS terms.
var (
	SKOSConcept       = IRI{Value: SKOSNS + "Concept"}
	SKOSConceptScheme = IRI{Value: SKOSNS + "ConceptScheme"}
	SKOSInScheme      = IRI{Value: SKOSNS + "inScheme"}
	SKOSPrefLabel     = IRI{Value: SKOSNS + "prefLabel"}
)

// SH returns the SHACL term with the given local name.
func SH(local string) IRI { return IRI{Value: SHNS + local} }

// SHACL terms used by the converters and the validator.
var (
	SHNodeShape        = SH("NodeShape")
	SHPropertyShape    = SH("PropertyShape")
	SHTargetClass      = SH("targetClass")
	SHTargetNode       = SH("targetNode")
	SHTargetSubjectsOf = SH("targetSubjectsOf")
	SHTargetObjectsOf  = SH("targetObjectsOf")
	SHProperty         = SH("property")
	SHPath             = SH("path")
	SHInversePath      = SH("inversePath")
	SHName             = SH("name")
	SHDescription      = SH("description")
	SHDatatype         = SH("datatype")
	SHClass            = SH("class")
	SHMinCount         = SH("minCount")
	SHMaxCount         = SH("maxCount")
	SHIn               = SH("in")
	SHNodeKind         = SH("nodeKind")
	SHPattern          = SH("pattern")
	SHFlags            = SH("flags")
	SHMinLength        = SH("minLength")
	SHMaxLength        = SH("maxLength")
	SHMinInclusive     = SH("minInclusive")
	SHMaxInclusive     = SH("maxInclusive")
	SHMinExclusive     = SH("minExclusive")
	SHMaxExclusive     = SH("maxExclusive")
	SHHasValue         = SH("hasValue")
	SHMessage          = SH("message")
	SHSeverity         = SH("severity")
	SHDeactivated      = SH("deactivated")

	SHValidationReport          = SH("ValidationReport")
	SHValidationResult          = SH("ValidationResult")
	SHConforms                  = SH("conforms")
	SHResult                    = SH("result")
	SHFocusNode                 = SH("focusNode")
	SHResultPath                = SH("resultPath")
	SHResultMessage             = SH("resultMessage")
	SHResultSeverity            = SH("resultSeverity")
	SHValue                     = SH("value")
	SHSourceShape               = SH("sourceShape")
	SHSourceConstraintComponent = SH("sourceConstraintComponent")

	SHViolation = SH("Violation")
	SHWarning   = SH("Warning")
	SHInfo      = SH("Info")

	SHIRI                = SH("IRI")
	SHBlankNode          = SH("BlankNode")
	SHLiteral            = SH("Literal")
	SHBlankNodeOrIRI     = SH("BlankNodeOrIRI")
	SHBlankNodeOrLiteral = SH("BlankNodeOrLiteral")
	SHIRIOrLiteral       = SH("IRIOrLiteral")
)
