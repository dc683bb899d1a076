// Package definition loads forms described in YAML and turns them into
// controller configurations.
//
// # File Format
//
//	version: 1
//	name: signup
//	title: Create an account
//	fields:
//	  - key: name
//	    label: Name
//	    required: true
//	    message: Name must be provided
//	  - key: phoneNumber
//	    rules: required,phone      # validator tags
//	  - key: address.city          # nested keys build nested values
//	    required: true
//	  - key: address.zip
//	    pattern: '^[0-9]{4,5}$'
//	    default: "0150"
//	  - key: plan
//	    type: choice
//	    options: [free, pro]
//	steps:
//	  - title: About you
//	    fields: [name, phoneNumber]
//	  - title: Address
//	    fields: [address.city, address.zip]
//
// Rules of fields sharing a top-level key are combined, so "address" above is
// valid only when both the city and the postcode are.
//
// # Validation
//
// Parse and Load reject documents with problems and report all of them at
// once as an *InvalidError wrapping *ValidationError values.
package definition
