package helpers

// Default is the catalog of helpers the bundled compiler emits when
// lowering syntax for older targets.
var Default = NewCatalog(runtime...)

var runtime = []Record{
	{Name: "__create", Source: `var __create = Object.create;`},
	{Name: "__freeze", Source: `var __freeze = Object.freeze;`},
	{Name: "__defProp", Source: `var __defProp = Object.defineProperty;`},
	{Name: "__defProps", Source: `var __defProps = Object.defineProperties;`},
	{Name: "__getOwnPropDesc", Source: `var __getOwnPropDesc = Object.getOwnPropertyDescriptor;`},
	{Name: "__getOwnPropDescs", Source: `var __getOwnPropDescs = Object.getOwnPropertyDescriptors;`},
	{Name: "__getOwnPropNames", Source: `var __getOwnPropNames = Object.getOwnPropertyNames;`},
	{Name: "__getOwnPropSymbols", Source: `var __getOwnPropSymbols = Object.getOwnPropertySymbols;`},
	{Name: "__getProtoOf", Source: `var __getProtoOf = Object.getPrototypeOf;`},
	{Name: "__hasOwnProp", Source: `var __hasOwnProp = Object.prototype.hasOwnProperty;`},
	{Name: "__propIsEnum", Source: `var __propIsEnum = Object.prototype.propertyIsEnumerable;`},
	{Name: "__reflectGet", Source: `var __reflectGet = Reflect.get;`},
	{Name: "__reflectSet", Source: `var __reflectSet = Reflect.set;`},
	{Name: "__pow", Source: `var __pow = Math.pow;`},
	{
		Name:   "__knownSymbol",
		Source: `var __knownSymbol = (name, symbol) => (symbol = Symbol[name]) ? symbol : Symbol.for("Symbol." + name);`,
	},
	{
		Name:   "__typeError",
		Source: `var __typeError = (msg) => {
  throw TypeError(msg);
};`,
	},
	{
		Name:   "__defNormalProp",
		Deps:   []string{"__defProp"},
		Source: `var __defNormalProp = (obj, key, value) => key in obj ? __defProp(obj, key, { enumerable: true, configurable: true, writable: true, value }) : obj[key] = value;`,
	},
	{
		Name: "__spreadValues",
		Deps: []string{"__hasOwnProp", "__getOwnPropSymbols", "__propIsEnum", "__defNormalProp"},
		Source: `var __spreadValues = (a, b) => {
  for (var prop in b || (b = {}))
    if (__hasOwnProp.call(b, prop))
      __defNormalProp(a, prop, b[prop]);
  if (__getOwnPropSymbols)
    for (var prop of __getOwnPropSymbols(b)) {
      if (__propIsEnum.call(b, prop))
        __defNormalProp(a, prop, b[prop]);
    }
  return a;
};`,
	},
	{
		Name:   "__spreadProps",
		Deps:   []string{"__defProps", "__getOwnPropDescs"},
		Source: `var __spreadProps = (a, b) => __defProps(a, __getOwnPropDescs(b));`,
	},
	{
		Name:   "__name",
		Deps:   []string{"__defProp"},
		Source: `var __name = (target, value) => __defProp(target, "name", { value, configurable: true });`,
	},
	{
		Name:   "__restKey",
		Source: `var __restKey = (key) => typeof key === "symbol" ? key : key + "";`,
	},
	{
		Name: "__objRest",
		Deps: []string{"__hasOwnProp", "__getOwnPropSymbols", "__propIsEnum"},
		Source: `var __objRest = (source, exclude) => {
  var target = {};
  for (var prop in source)
    if (__hasOwnProp.call(source, prop) && exclude.indexOf(prop) < 0)
      target[prop] = source[prop];
  if (source != null && __getOwnPropSymbols)
    for (var prop of __getOwnPropSymbols(source)) {
      if (exclude.indexOf(prop) < 0 && __propIsEnum.call(source, prop))
        target[prop] = source[prop];
    }
  return target;
};`,
	},
	{
		Name: "__export",
		Deps: []string{"__defProp"},
		Source: `var __export = (target, all) => {
  for (var name in all)
    __defProp(target, name, { get: all[name], enumerable: true });
};`,
	},
	{
		Name: "__copyProps",
		Deps: []string{"__getOwnPropNames", "__hasOwnProp", "__defProp", "__getOwnPropDesc"},
		Source: `var __copyProps = (to, from, except, desc) => {
  if (from && typeof from === "object" || typeof from === "function") {
    for (let key of __getOwnPropNames(from))
      if (!__hasOwnProp.call(to, key) && key !== except)
        __defProp(to, key, { get: () => from[key], enumerable: !(desc = __getOwnPropDesc(from, key)) || desc.enumerable });
  }
  return to;
};`,
	},
	{
		Name:   "__reExport",
		Deps:   []string{"__copyProps"},
		Source: `var __reExport = (target, mod, secondTarget) => (__copyProps(target, mod, "default"), secondTarget && __copyProps(secondTarget, mod, "default"));`,
	},
	{
		Name: "__toESM",
		Deps: []string{"__create", "__getProtoOf", "__copyProps", "__defProp"},
		Source: `var __toESM = (mod, isNodeMode, target) => (target = mod != null ? __create(__getProtoOf(mod)) : {}, __copyProps(
  isNodeMode || !mod || !mod.__esModule ? __defProp(target, "default", { value: mod, enumerable: true }) : target,
  mod
));`,
	},
	{
		Name:   "__toCommonJS",
		Deps:   []string{"__copyProps", "__defProp"},
		Source: `var __toCommonJS = (mod) => __copyProps(__defProp({}, "__esModule", { value: true }), mod);`,
	},
	{
		Name: "__decorateClass",
		Deps: []string{"__getOwnPropDesc", "__defProp"},
		Source: `var __decorateClass = (decorators, target, key, kind) => {
  var result = kind > 1 ? void 0 : kind ? __getOwnPropDesc(target, key) : target;
  for (var i = decorators.length - 1, decorator; i >= 0; i--)
    if (decorator = decorators[i])
      result = (kind ? decorator(target, key, result) : decorator(result)) || result;
  if (kind && result) __defProp(target, key, result);
  return result;
};`,
	},
	{
		Name:   "__decorateParam",
		Source: `var __decorateParam = (index, decorator) => (target, key) => decorator(target, key, index);`,
	},
	{
		Name:   "__publicField",
		Deps:   []string{"__defNormalProp"},
		Source: `var __publicField = (obj, key, value) => __defNormalProp(obj, typeof key !== "symbol" ? key + "" : key, value);`,
	},
	{
		Name:   "__accessCheck",
		Deps:   []string{"__typeError"},
		Source: `var __accessCheck = (obj, member, msg) => member.has(obj) || __typeError("Cannot " + msg);`,
	},
	{
		Name:   "__privateIn",
		Deps:   []string{"__typeError"},
		Source: `var __privateIn = (member, obj) => Object(obj) !== obj ? __typeError('Cannot use the "in" operator on this value') : member.has(obj);`,
	},
	{
		Name:   "__privateGet",
		Deps:   []string{"__accessCheck"},
		Source: `var __privateGet = (obj, member, getter) => (__accessCheck(obj, member, "read from private field"), getter ? getter.call(obj) : member.get(obj));`,
	},
	{
		Name:   "__privateAdd",
		Deps:   []string{"__typeError"},
		Source: `var __privateAdd = (obj, member, value) => member.has(obj) ? __typeError("Cannot add the same private member more than once") : member instanceof WeakSet ? member.add(obj) : member.set(obj, value);`,
	},
	{
		Name:   "__privateSet",
		Deps:   []string{"__accessCheck"},
		Source: `var __privateSet = (obj, member, value, setter) => (__accessCheck(obj, member, "write to private field"), setter ? setter.call(obj, value) : member.set(obj, value), value);`,
	},
	{
		Name:   "__privateMethod",
		Deps:   []string{"__accessCheck"},
		Source: `var __privateMethod = (obj, member, method) => (__accessCheck(obj, member, "access private method"), method);`,
	},
	{
		Name: "__privateWrapper",
		Deps: []string{"__privateSet", "__privateGet"},
		Source: `var __privateWrapper = (obj, member, setter, getter) => ({
  set _(value) {
    __privateSet(obj, member, value, setter);
  },
  get _() {
    return __privateGet(obj, member, getter);
  }
});`,
	},
	{
		Name:   "__superGet",
		Deps:   []string{"__reflectGet", "__getProtoOf"},
		Source: `var __superGet = (cls, obj, key) => __reflectGet(__getProtoOf(cls), key, obj);`,
	},
	{
		Name:   "__superSet",
		Deps:   []string{"__reflectSet", "__getProtoOf"},
		Source: `var __superSet = (cls, obj, key, val) => (__reflectSet(__getProtoOf(cls), key, val, obj), val);`,
	},
	{
		Name: "__async",
		Source: `var __async = (__this, __arguments, generator) => {
  return new Promise((resolve, reject) => {
    var fulfilled = (value) => {
      try {
        step(generator.next(value));
      } catch (e) {
        reject(e);
      }
    };
    var rejected = (value) => {
      try {
        step(generator.throw(value));
      } catch (e) {
        reject(e);
      }
    };
    var step = (x) => x.done ? resolve(x.value) : Promise.resolve(x.value).then(fulfilled, rejected);
    step((generator = generator.apply(__this, __arguments)).next());
  });
};`,
	},
	{
		Name: "__await",
		Source: `var __await = function(promise, isYieldStar) {
  this[0] = promise;
  this[1] = isYieldStar;
};`,
	},
	{
		Name: "__asyncGenerator",
		Deps: []string{"__await", "__knownSymbol"},
		Source: `var __asyncGenerator = (__this, __arguments, generator) => {
  var resume = (k, v, yes, no) => {
    try {
      var x = generator[k](v), isAwait = (v = x.value) instanceof __await, done = x.done;
      Promise.resolve(isAwait ? v[0] : v).then((y) => isAwait ? resume(k === "return" ? k : "next", v[1] ? { done: y.done, value: y.value } : y, yes, no) : yes({ value: y, done })).catch((e) => resume("throw", e, yes, no));
    } catch (e) {
      no(e);
    }
  }, method = (k) => it[k] = (x) => new Promise((yes, no) => resume(k, x, yes, no)), it = {};
  return generator = generator.apply(__this, __arguments), it[__knownSymbol("asyncIterator")] = () => it, method("next"), method("throw"), method("return"), it;
};`,
	},
	{
		Name: "__forAwait",
		Deps: []string{"__knownSymbol"},
		Source: `var __forAwait = (obj, it, method) => (it = obj[__knownSymbol("asyncIterator")]) ? it.call(obj) : (obj = obj[__knownSymbol("iterator")](), it = {}, method = (key, fn) => (fn = obj[key]) && (it[key] = (arg) => new Promise((yes, no, done) => (arg = fn.call(obj, arg), done = arg.done, Promise.resolve(arg.value).then((value) => yes({ value, done }), no)))), method("next"), method("return"), it);`,
	},
	{
		Name:   "__template",
		Deps:   []string{"__freeze", "__defProp"},
		Source: `var __template = (cooked, raw) => __freeze(__defProp(cooked, "raw", { value: __freeze(raw || cooked.slice()) }));`,
	},
}
