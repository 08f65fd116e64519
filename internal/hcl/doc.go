// Package hcl loads workflow definitions written in HCL into the
// format-agnostic config.Model.
//
// A definition file holds any number of workflow blocks:
//
//	workflow "sales" {
//	  name = "Sales pipeline"
//
//	  node "start" "s" {}
//
//	  node "filter" "big" {
//	    output   = "big_amounts"
//	    position = { x = 120, y = 40 }
//	    config {
//	      mode   = "gt"
//	      column = "amount"
//	      value  = 10
//	    }
//	  }
//
//	  node "end" "e" {}
//
//	  edge "s" "big" {}
//	  edge "big" "e" {}
//	}
//
// Config attributes are converted to strings, so numbers and booleans may
// be written unquoted.
package hcl
